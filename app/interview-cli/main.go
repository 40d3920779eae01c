package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/logger"
	"github.com/yoockh/yoointerview/internal/models"
	"github.com/yoockh/yoointerview/internal/providers/llm"
	"github.com/yoockh/yoointerview/internal/repositories/memory"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/session"
)

func main() {
	app := config.Load()

	var (
		server      = flag.String("server", app.InterviewServerURL, "interviewer service base URL")
		userID      = flag.String("user", os.Getenv("USER_ID"), "user id; empty runs an anonymous session")
		userName    = flag.String("name", "", "user display name")
		interviewID = flag.String("interview", "", "existing interview id")
		feedbackID  = flag.String("feedback", "", "feedback id to overwrite")
		generate    = flag.Bool("generate", false, "run the card generation flow")
		role        = flag.String("role", "", "interview role")
		level       = flag.String("level", "", "experience level")
		kind        = flag.String("type", "", "interview type")
		techstack   = flag.String("techstack", "", "comma separated tech stack")
		speak       = flag.String("speak", "off", `read interviewer messages aloud: "off", "auto" or a TTS program such as say or espeak`)
	)
	flag.Parse()

	log := logger.NewWithOutput(os.Stderr, "text", os.Getenv("LOG_LEVEL"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interviews, feedback, closeStores := openStores(ctx, app, log)
	defer closeStores()

	cfg := session.Config{
		InterviewID:   *interviewID,
		FeedbackID:    *feedbackID,
		Role:          *role,
		Level:         *level,
		InterviewType: *kind,
		Techstack:     splitList(*techstack),
	}
	if *userID != "" {
		cfg.User = &models.User{ID: *userID, Name: *userName}
	}
	if *generate {
		cfg.Flow = session.FlowGenerate
	}

	term := newTerminal(os.Stdin, os.Stdout)
	opts := []session.Option{
		session.WithPrompter(term),
		session.WithSpeaker(term),
		session.WithObserver(term),
		session.WithLogger(logrus.NewEntry(log)),
	}
	speaker, err := newSpeaker(*speak, exec.LookPath)
	if err != nil {
		log.WithError(err).Warn("speech output disabled")
	} else if speaker != nil {
		log.WithField("program", speaker.name).Info("speech output enabled")
		opts = append(opts, session.WithSpeaker(speaker))
	}
	client := session.New(interviewapi.New(*server), interviews, feedback, cfg, opts...)

	// first Ctrl-C ends the call and saves it; a second one aborts
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\nending call...")
		client.Stop()
		<-sig
		cancel()
	}()

	out, err := client.Start(ctx)
	if err != nil {
		log.WithError(err).Error("interview failed")
		if msg := client.Err(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(1)
	}

	fmt.Printf("\nredirect: %s\n", out.Redirect)
	if out.FeedbackID != "" && feedback != nil {
		fb, err := feedback.GetByInterview(ctx, out.InterviewID, cfg.User.ID)
		if err != nil {
			log.WithError(err).Warn("could not load feedback")
			return
		}
		printFeedback(os.Stdout, fb)
	}
}

// openStores wires persistence and scoring in process. Either result may be
// nil, in which case the session runs without that step.
func openStores(ctx context.Context, app config.App, log *logrus.Logger) (services.InterviewService, services.FeedbackService, func()) {
	var (
		interviewRepo mongorepo.InterviewRepository = memory.NewInterviewRepo()
		feedbackRepo  mongorepo.FeedbackRepository  = memory.NewFeedbackRepo()
		closers       []func()
	)
	if config.MongoConfigured() {
		if err := config.InitMongo(); err != nil {
			log.WithError(err).Fatal("MongoDB init error")
		}
		db := config.MongoDatabase()
		interviewRepo = mongorepo.NewInterviewRepo(db)
		feedbackRepo = mongorepo.NewFeedbackRepo(db)
		closers = append(closers, func() { _ = config.CloseMongo(context.Background()) })
	} else {
		log.Warn("MONGO_URI not set; interviews are kept in memory only")
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	interviews := services.NewInterviewService(interviewRepo, nil)
	if app.GCPProjectID == "" {
		log.Warn("GCP_PROJECT_ID not set; feedback disabled")
		return interviews, nil, closeAll
	}
	model, err := llm.NewVertexGemini(ctx, app.GCPProjectID, app.GCPLocation, app.GeminiModel)
	if err != nil {
		log.WithError(err).Warn("Vertex AI unavailable; feedback disabled")
		return interviews, nil, closeAll
	}
	closers = append(closers, func() { _ = model.Close() })
	return interviews, services.NewFeedbackService(interviewRepo, feedbackRepo, model, log), closeAll
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
