package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/api/handlers"
	"github.com/yoockh/yoointerview/internal/api/middleware"
	"github.com/yoockh/yoointerview/internal/api/routes"
	"github.com/yoockh/yoointerview/internal/cache"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
	"github.com/yoockh/yoointerview/internal/workers"
)

func main() {
	app := config.Load()
	log := logger.New()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Redis backs interviewer sessions and the speech queue
	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	interviews, feedback := openMongo(log)

	var convo postgres.ConversationRepo
	if config.PostgresConfigured() {
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		if err := postgres.AutoMigrate(config.PostgresDB); err != nil {
			log.WithError(err).Fatal("PostgreSQL migrate error")
		}
		convo = postgres.NewConversationRepo(config.PostgresDB)
		log.Info("PostgreSQL connected")
	} else {
		log.Warn("POSTGRES_URI not set; conversation log disabled")
	}

	model, err := llm.NewVertexGemini(ctx, app.GCPProjectID, app.GCPLocation, app.GeminiModel)
	if err != nil {
		log.WithError(err).Fatal("Vertex AI init error")
	}
	defer model.Close()

	var objects storage.ObjectStore
	if app.GCSBucket != "" {
		gcs, err := storage.NewGCSStore(ctx, app.GCSBucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		defer gcs.Close()
		objects = gcs
	}

	interviewSvc := services.NewInterviewService(interviews, objects)
	feedbackSvc := services.NewFeedbackService(interviews, feedback, model, log)
	generateSvc := services.NewGenerateService(interviewSvc, model, log)
	interviewerSvc := services.NewInterviewerService(
		cache.NewRedisCache(config.RedisClient, "yoointerview:"), model, convo, log)
	sttSvc := services.NewSTTService(config.RedisClient)

	if app.DisableSTT {
		log.Warn("STT_DISABLED set; audio will queue without being transcribed")
	} else {
		speech, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Fatal("Speech-to-Text init error")
		}
		defer speech.Close()

		pool := &workers.STTWorkerPool{
			Redis:      config.RedisClient,
			Results:    sttSvc,
			STT:        speech,
			NumWorkers: app.STTWorkers,
			Logger:     log,
		}
		if err := pool.Start(ctx); err != nil {
			log.WithError(err).Fatal("STT worker init error")
		}
	}

	gin.SetMode(os.Getenv("GIN_MODE"))
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Interviewer:  handlers.NewInterviewerHandler(interviewerSvc),
		STT:          handlers.NewSTTHandler(sttSvc),
		WS:           handlers.NewWSHandler(sttSvc),
		Generate:     handlers.NewGenerateHandler(generateSvc),
		Interview:    handlers.NewInterviewHandler(interviewSvc),
		Feedback:     handlers.NewFeedbackHandler(feedbackSvc),
		Conversation: handlers.NewConversationHandler(interviewerSvc),
		Metrics:      metrics.Handler(),
	})

	srv := &http.Server{Addr: ":" + app.Port, Handler: r}
	go func() {
		log.WithField("port", app.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	_ = srv.Shutdown(shutdownCtx)
	_ = config.CloseMongo(shutdownCtx)
	_ = config.RedisClient.Close()
}

// openMongo returns the interview and feedback stores. Without MONGO_URI
// both live in memory, which is enough for local runs.
func openMongo(log *logrus.Logger) (mongorepo.InterviewRepository, mongorepo.FeedbackRepository) {
	if !config.MongoConfigured() {
		log.Warn("MONGO_URI not set; using in-memory interview store")
		return memory.NewInterviewRepo(), memory.NewFeedbackRepo()
	}
	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Warn("MongoDB index creation failed")
	}
	log.Info("MongoDB connected")

	db := config.MongoDatabase()
	return mongorepo.NewInterviewRepo(db), mongorepo.NewFeedbackRepo(db)
}
