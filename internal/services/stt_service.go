package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yoockh/yoointerview/internal/interviewapi"
	"github.com/yoockh/yoointerview/internal/providers/stt"
	"github.com/yoockh/yoointerview/internal/utils"
)

const (
	AudioStream        = "audio:stream"
	TranscriptionsList = "stt:transcriptions"

	noSpeechMessage = "No speech detected"
	stoppedMessage  = "Speech recognition stopped"
)

// STTService queues captured audio for the STT workers and hands finished
// transcriptions to GET /stt, oldest first.
type STTService interface {
	EnqueueAudio(ctx context.Context, audio []byte, language string) (string, error)
	PushResult(ctx context.Context, res interviewapi.STTResponse) error
	// Next waits up to wait for a result. A timeout yields a "No speech
	// detected" error response, not an error.
	Next(ctx context.Context, wait time.Duration) (*interviewapi.STTResponse, error)
	// Stop drops queued audio and undelivered transcriptions.
	Stop(ctx context.Context) (*interviewapi.STTResponse, error)
}

type sttService struct {
	rdb *redis.Client
}

func NewSTTService(rdb *redis.Client) STTService {
	return &sttService{rdb: rdb}
}

func (s *sttService) EnqueueAudio(ctx context.Context, audio []byte, language string) (string, error) {
	const op = "STTService.EnqueueAudio"

	if len(audio) == 0 {
		return "", utils.E(utils.CodeInvalidArgument, op, "audio is empty", nil)
	}
	id, err := s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: AudioStream,
		MaxLen: 1000,
		Approx: true,
		Values: map[string]any{
			"audio_base64": base64.StdEncoding.EncodeToString(audio),
			"language":     stt.NormalizeLanguage(language),
			"enqueued_at":  strconv.FormatInt(time.Now().UnixMilli(), 10),
		},
	}).Result()
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to queue audio", err)
	}
	return id, nil
}

func (s *sttService) PushResult(ctx context.Context, res interviewapi.STTResponse) error {
	const op = "STTService.PushResult"

	b, err := json.Marshal(res)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode transcription", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, TranscriptionsList, b)
	pipe.Expire(ctx, TranscriptionsList, 10*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to store transcription", err)
	}
	return nil
}

func (s *sttService) Next(ctx context.Context, wait time.Duration) (*interviewapi.STTResponse, error) {
	const op = "STTService.Next"

	if wait <= 0 {
		wait = 5 * time.Second
	}
	kv, err := s.rdb.BLPop(ctx, wait, TranscriptionsList).Result()
	if errors.Is(err, redis.Nil) {
		return &interviewapi.STTResponse{Status: interviewapi.STTStatusError, Message: noSpeechMessage}, nil
	}
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read transcription", err)
	}
	if len(kv) != 2 {
		return nil, utils.E(utils.CodeInternal, op, "unexpected BLPOP reply", nil)
	}

	var res interviewapi.STTResponse
	if err := json.Unmarshal([]byte(kv[1]), &res); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "corrupt transcription entry", err)
	}
	return &res, nil
}

func (s *sttService) Stop(ctx context.Context) (*interviewapi.STTResponse, error) {
	const op = "STTService.Stop"

	pipe := s.rdb.TxPipeline()
	pipe.XTrimMaxLen(ctx, AudioStream, 0)
	pipe.Del(ctx, TranscriptionsList)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to stop speech recognition", err)
	}
	return &interviewapi.STTResponse{Status: interviewapi.STTStatusOK, Message: stoppedMessage}, nil
}
