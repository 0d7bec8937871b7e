package cli

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"iq-quiz-service/internal/app"
	"iq-quiz-service/internal/config"
	"iq-quiz-service/internal/domain"
	"iq-quiz-service/internal/infra/memory"
	"iq-quiz-service/internal/infra/postgres"
	infraredis "iq-quiz-service/internal/infra/redis"
	transport "iq-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Ephemeral stores: Redis when configured (shared across restarts),
	// in-process otherwise.
	var (
		sessionStore  app.KeyStore[time.Time]
		penaltyStore  app.KeyStore[app.GuardRecord]
		feedbackStore app.KeyStore[time.Time]
		rankingCache  app.KeyStore[domain.Leaderboard]
	)
	if redisClient != nil {
		sessionStore = infraredis.NewStore[time.Time](redisClient, "quiz:session", app.SessionTTL)
		penaltyStore = infraredis.NewStore[app.GuardRecord](redisClient, "quiz:penalty", app.SubmitCooldown)
		feedbackStore = infraredis.NewStore[time.Time](redisClient, "quiz:feedback", app.FeedbackWindow)
		rankingCache = infraredis.NewStore[domain.Leaderboard](redisClient, "quiz:ranking", app.LeaderboardTTL)
	} else {
		sessionStore = memory.NewStore[time.Time](app.SessionTTL, app.SessionCapacity)
		penaltyStore = memory.NewStore[app.GuardRecord](app.SubmitCooldown, app.GuardCapacity)
		feedbackStore = memory.NewStore[time.Time](app.FeedbackWindow, app.GuardCapacity)
		rankingCache = memory.NewStore[domain.Leaderboard](app.LeaderboardTTL, 1)
	}

	// Storage: Postgres when configured, in-memory demo bank otherwise.
	var (
		questions app.QuestionRepository
		results   app.ResultRepository
		feedbacks app.FeedbackRepository
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		questions = postgres.NewQuestionRepository(pool)
		results = postgres.NewResultRepository(pool)
		feedbacks = postgres.NewFeedbackRepository(pool)
	} else {
		questions = memory.NewQuestionRepository(sampleQuestions())
		results = memory.NewResultRepository()
		feedbacks = memory.NewFeedbackRepository()
	}

	poolTTL := config.TTLDuration(cfg.Quiz.PoolTTL, 24*time.Hour)
	cachedQuestions := memory.NewCachedQuestionRepository(questions, poolTTL)

	sessions := app.NewSessionTracker(sessionStore)
	guard := app.NewSubmissionGuard(penaltyStore, feedbackStore, cfg.Limits.ExemptIPs)
	selector := app.NewQuestionSelector(rand.New(rand.NewSource(time.Now().UnixNano())))
	ranking := app.NewRankingAggregator(results, rankingCache)
	nicknames, err := app.NewNicknameValidator()
	if err != nil {
		return err
	}
	feed := app.NewRankingFeed()

	quizService := app.NewQuizService(cachedQuestions, results, sessions, guard, selector, ranking, nicknames, feed)
	feedbackService := app.NewFeedbackService(feedbacks, guard)

	api := transport.NewAPI(quizService, feedbackService)
	wsHandler := transport.NewWSHandler(quizService, feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)
	mux.HandleFunc("/ws/ranking", wsHandler.ServeRanking)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.CORS(cfg.Server.Cors.AllowedOrigins, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions seeds the in-memory bank for local development: one
// question per category/difficulty pair so a full 15-question set can be
// drawn.
func sampleQuestions() []domain.Question {
	var out []domain.Question
	id := int64(1)
	for _, category := range domain.CategoryOrder {
		for difficulty := 1; difficulty <= 3; difficulty++ {
			out = append(out, domain.Question{
				ID:         id,
				Content:    "Sample " + string(category) + " question",
				Options:    []string{"A", "B", "C", "D"},
				Answer:     int(id) % 4,
				Difficulty: difficulty,
				OrderNum:   int(id),
				Category:   category,
			})
			id++
		}
	}
	return out
}
