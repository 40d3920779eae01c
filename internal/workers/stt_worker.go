package workers

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/metrics"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/services"
)

// ResultSink receives finished transcriptions.
type ResultSink interface {
	PushResult(ctx context.Context, res interviewapi.STTResponse) error
}

// STTWorkerPool consumes the audio stream with a Redis consumer group and
// turns each chunk into a transcription result.
type STTWorkerPool struct {
	Redis      *redis.Client
	Results    ResultSink
	STT        stt.Provider
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *STTWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Results == nil || p.STT == nil {
		return errors.New("STTWorkerPool missing dependency: Redis/Results/STT must be set")
	}
	if p.Stream == "" {
		p.Stream = services.AudioStream
	}
	if p.Group == "" {
		p.Group = "stt-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *STTWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *STTWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	log := p.Logger.WithField("redis_id", msg.ID)

	raw := getStr("audio_base64")
	if raw == "" {
		return
	}
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[i+1:] // strip data:...;base64,
	}
	audio, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		log.WithError(err).Warn("base64 decode failed")
		metrics.Transcriptions.WithLabelValues("invalid").Inc()
		return
	}

	text, conf, err := p.STT.Transcribe(ctx, audio, getStr("language"))
	var out interviewapi.STTResponse
	switch {
	case err != nil:
		log.WithError(err).Error("stt failed")
		metrics.Transcriptions.WithLabelValues("failed").Inc()
		out = interviewapi.STTResponse{Status: interviewapi.STTStatusError, Message: "Speech recognition error: " + err.Error()}
	case strings.TrimSpace(text) == "":
		metrics.Transcriptions.WithLabelValues("empty").Inc()
		out = interviewapi.STTResponse{Status: interviewapi.STTStatusError, Message: "No speech detected"}
	default:
		metrics.Transcriptions.WithLabelValues("ok").Inc()
		log.WithField("confidence", conf).Debug("stt done")
		out = interviewapi.STTResponse{Status: interviewapi.STTStatusOK, Transcription: strings.TrimSpace(text)}
	}

	if err := p.Results.PushResult(ctx, out); err != nil {
		log.WithError(err).Error("failed to store transcription")
	}
}
