// feedbench measures feed page latency with and without the redis page cache.
//
// It seeds FEED_POSTS posts (default 20000) by a dedicated author into the
// configured database, then replays FEED_REQUESTS page reads (default 5000)
// across the home, group and profile feeds. REDIS_ADDR selects a real redis;
// without it an in-process miniredis is used.
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

const (
	benchAuthor = "feedbench"
	benchGroup  = "feedbench"
)

type feedKind int

const (
	feedAll feedKind = iota
	feedGroup
	feedAuthor
)

type request struct {
	kind feedKind
	page int
}

func main() {
	ctx := context.Background()
	postCount := envInt("FEED_POSTS", 20000)
	requestCount := envInt("FEED_REQUESTS", 5000)

	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)

	fmt.Println("Setting up test data...")
	author, group := seed(ctx, db, postCount)
	fmt.Printf("Test data ready: %d posts by %s in group %s\n", postCount, author.Username, group.Slug)

	client := redisClient()
	defer client.Close()
	mustDo(client.Ping(ctx).Err())

	posts := repository.NewPostRepository(db)
	groups := repository.NewGroupRepository(db)
	users := repository.NewUserRepository(db)
	redisCache := cache.NewRedisFeedCache(client, 10*time.Minute)

	reqs := makeRequests(requestCount)

	noCache := runScenario(ctx, service.NewListingService(posts, groups, users, cache.Nop{}), reqs, false, client, nil)
	cold := runScenario(ctx, service.NewListingService(posts, groups, users, redisCache), reqs, false, client, redisCache)
	warm := runScenario(ctx, service.NewListingService(posts, groups, users, redisCache), reqs, true, client, redisCache)

	fmt.Printf("\nFeed page latency (%d req, %d posts, %s)\n", len(reqs), postCount, cfg.Database.Driver)
	report("No cache", noCache)
	report("Redis cold", cold)
	report("Redis warm", warm)
}

type scenarioResult struct {
	durations []time.Duration
	hits      int64
	misses    int64
	cacheKeys int
}

func report(name string, r scenarioResult) {
	fmt.Printf("%-12s avg=%v p95=%v p99=%v hits=%d misses=%d cache_keys=%d\n",
		name, avg(r.durations), pct(r.durations, 0.95), pct(r.durations, 0.99),
		r.hits, r.misses, r.cacheKeys,
	)
}

func runScenario(ctx context.Context, listing service.ListingService, reqs []request, warm bool, client *redis.Client, rc *cache.RedisFeedCache) scenarioResult {
	client.FlushAll(ctx)

	call := func(r request) error {
		var err error
		switch r.kind {
		case feedGroup:
			_, err = listing.ListByGroup(ctx, benchGroup, r.page)
		case feedAuthor:
			_, err = listing.ListByAuthor(ctx, benchAuthor, r.page)
		default:
			_, err = listing.ListAll(ctx, r.page)
		}
		return err
	}

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			mustDo(call(r))
		}
		fmt.Println(" done")
	}
	if rc != nil {
		rc.ResetCounters()
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		mustDo(call(r))
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := scenarioResult{durations: out}
	if rc != nil {
		res.hits, res.misses = rc.Counters()
	}
	keys, _ := client.Keys(ctx, "feed:*").Result()
	res.cacheKeys = len(keys)
	return res
}

// seed tops the bench author up to n posts, all in the bench group.
func seed(ctx context.Context, db *gorm.DB, n int) (*model.User, *model.Group) {
	users := repository.NewUserRepository(db)
	groups := repository.NewGroupRepository(db)
	posts := repository.NewPostRepository(db)

	author, err := users.GetByUsername(ctx, benchAuthor)
	if err != nil {
		author = &model.User{ID: uuid.NewString(), Username: benchAuthor, Email: benchAuthor + "@example.com", Password: "!"}
		mustDo(users.Create(ctx, author))
	}
	group, err := groups.GetBySlug(ctx, benchGroup)
	if err != nil {
		group = &model.Group{Title: "Feed bench", Slug: benchGroup, Description: "feedbench data"}
		mustDo(groups.Create(ctx, group))
	}

	have := must(posts.Count(ctx, repository.PostFilter{AuthorID: author.ID}))
	missing := n - int(have)
	if missing <= 0 {
		return author, group
	}
	base := time.Now().UTC()
	rows := make([]model.Post, missing)
	for i := range rows {
		rows[i] = model.Post{
			Text:     fmt.Sprintf("feedbench post %d", int(have)+i),
			PubDate:  base.Add(-time.Duration(i) * time.Second),
			AuthorID: author.ID,
			GroupID:  &group.ID,
		}
	}
	mustDo(db.WithContext(ctx).Omit("Author", "Group").CreateInBatches(&rows, 1000).Error)
	return author, group
}

func redisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		mr := must(miniredis.Run())
		addr = mr.Addr()
		fmt.Println("REDIS_ADDR not set, using in-process miniredis at", addr)
	}
	return redis.NewClient(&redis.Options{Addr: addr})
}

func makeRequests(n int) []request {
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		page := 1
		if rnd.Float64() > 0.72 {
			// deep pagination
			page = 2 + rnd.Intn(120)
		}
		out[i] = request{kind: feedKind(rnd.Intn(3)), page: page}
	}
	return out
}

func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
