package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"localore/internal/domain/entity"
)

const (
	keyAllKeywords  = "localore:kw:all"
	keyDayPrefix    = "localore:kw:day:"
	keyCountPrefix  = "localore:count:day:"
	keyUnionPrefix  = "localore:kw:union:"
	keyKeywordGenre = "localore:kw:genre"
	keyGenreSet     = "localore:genres"

	dayKeywordTTL = 31 * 24 * time.Hour
	dayCountTTL   = 100 * 24 * time.Hour
	unionTTL      = 5 * time.Minute

	// genreScanDepth bounds how far down the ranking a genre filter looks.
	genreScanDepth = 500
)

// RedisStats aggregates keyword demand in Redis: an all-time ranking, daily
// ranking buckets with a TTL, daily request counters, and a keyword to genre
// mapping.
type RedisStats struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStats(client *redis.Client) *RedisStats {
	return &RedisStats{
		client: client,
		now:    time.Now,
	}
}

func dayKey(prefix string, day time.Time) string {
	return prefix + day.UTC().Format("20060102")
}

// lastDays lists the day bucket keys for the n days ending today.
func lastDays(prefix string, today time.Time, n int) []string {
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, dayKey(prefix, today.AddDate(0, 0, -i)))
	}
	return keys
}

// periodDays maps a ranking period to the number of day buckets it spans.
// Zero means the period is not bucket-backed.
func periodDays(period string) int {
	switch period {
	case entity.Period7d:
		return 7
	case entity.Period30d:
		return 30
	}
	return 0
}

// RecordKeyword counts one request for keyword in every aggregate. All
// writes go through one pipeline round trip.
func (r *RedisStats) RecordKeyword(ctx context.Context, keyword, genre string) error {
	today := r.now()
	kwDay := dayKey(keyDayPrefix, today)
	countDay := dayKey(keyCountPrefix, today)

	pipe := r.client.TxPipeline()
	pipe.ZIncrBy(ctx, keyAllKeywords, 1, keyword)
	pipe.ZIncrBy(ctx, kwDay, 1, keyword)
	pipe.Expire(ctx, kwDay, dayKeywordTTL)
	pipe.Incr(ctx, countDay)
	pipe.Expire(ctx, countDay, dayCountTTL)
	if genre != "" {
		pipe.HSet(ctx, keyKeywordGenre, keyword, genre)
		pipe.SAdd(ctx, keyGenreSet, genre)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RankKeywords returns the most requested keywords for the period, highest
// count first, annotated with their genre. An empty genre means no filter.
func (r *RedisStats) RankKeywords(ctx context.Context, period string, limit int, genre string) ([]entity.KeywordCount, error) {
	if !entity.ValidPeriod(period) {
		return nil, fmt.Errorf("unknown ranking period %q", period)
	}
	if limit <= 0 {
		return []entity.KeywordCount{}, nil
	}

	source, err := r.rankingSource(ctx, period)
	if err != nil {
		return nil, err
	}

	fetch := int64(limit)
	if genre != "" {
		fetch = genreScanDepth
	}
	rows, err := r.client.ZRevRangeWithScores(ctx, source, 0, fetch-1).Result()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entity.KeywordCount{}, nil
	}

	members := make([]string, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.Member.(string))
	}
	genres, err := r.client.HMGet(ctx, keyKeywordGenre, members...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]entity.KeywordCount, 0, limit)
	for i, row := range rows {
		g := entity.GenreOther
		if s, ok := genres[i].(string); ok && s != "" {
			g = s
		}
		if genre != "" && g != genre {
			continue
		}
		result = append(result, entity.KeywordCount{
			Keyword: members[i],
			Count:   int64(row.Score),
			Genre:   g,
		})
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// rankingSource resolves the zset to rank from. Multi-day periods are
// unioned into a short-lived scratch key so repeated queries stay cheap.
func (r *RedisStats) rankingSource(ctx context.Context, period string) (string, error) {
	switch period {
	case entity.PeriodAll:
		return keyAllKeywords, nil
	case entity.PeriodToday:
		return dayKey(keyDayPrefix, r.now()), nil
	}

	days := periodDays(period)
	today := r.now()
	scratch := keyUnionPrefix + period + ":" + today.UTC().Format("20060102")

	exists, err := r.client.Exists(ctx, scratch).Result()
	if err != nil {
		return "", err
	}
	if exists == 0 {
		if err := r.client.ZUnionStore(ctx, scratch, &redis.ZStore{
			Keys: lastDays(keyDayPrefix, today, days),
		}).Err(); err != nil {
			return "", err
		}
		if err := r.client.Expire(ctx, scratch, unionTTL).Err(); err != nil {
			return "", err
		}
	}
	return scratch, nil
}

// DailyCounts returns request totals per calendar day for the last days
// days, oldest first. Days with no traffic report zero.
func (r *RedisStats) DailyCounts(ctx context.Context, days int) ([]entity.DailyCount, error) {
	if days <= 0 {
		return []entity.DailyCount{}, nil
	}

	today := r.now()
	keys := lastDays(keyCountPrefix, today, days)
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]entity.DailyCount, 0, days)
	for i := range keys {
		date := today.AddDate(0, 0, -(days - 1 - i)).UTC().Format("2006-01-02")
		var count int64
		if s, ok := values[i].(string); ok {
			count, _ = strconv.ParseInt(s, 10, 64)
		}
		result = append(result, entity.DailyCount{Date: date, Count: count})
	}
	return result, nil
}

// ListGenres returns every genre that has been recorded, sorted.
func (r *RedisStats) ListGenres(ctx context.Context) ([]string, error) {
	genres, err := r.client.SMembers(ctx, keyGenreSet).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(genres)
	return genres, nil
}
