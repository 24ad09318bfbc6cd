// Package pipeline implements the per-session event pipeline: it
// validates preconditions, drives the session lifecycle, coordinates
// the transcription and summarization gateways with storage writes,
// and broadcasts lifecycle and result events to the session room.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/entities"
	"github.com/khairulh/notulen/domain/repositories"
	"github.com/khairulh/notulen/internal/metrics"
	"github.com/khairulh/notulen/internal/websocket"
)

const (
	storeTimeout      = 10 * time.Second
	transcribeTimeout = 30 * time.Second
	finalizeTimeout   = 2 * time.Minute

	defaultChunkConcurrency = 4
	defaultWorkerIdleTTL    = 5 * time.Minute
)

// Options tune the dispatch model.
type Options struct {
	// ChunkConcurrency bounds how many transcription calls may be in
	// flight at once for one session.
	ChunkConcurrency int

	// WorkerIdleTTL is the quiet period after which a session worker
	// is garbage-collected.
	WorkerIdleTTL time.Duration
}

// Pipeline is the per-session event processor. All state-mutating
// events for one session identifier run on a single worker; no
// session-wide lock is held across gateway or store calls.
type Pipeline struct {
	store       repositories.SessionStore
	transcriber repositories.Transcriber
	summarizer  repositories.Summarizer
	hub         *websocket.Hub

	d       *dispatcher
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates a pipeline. Metrics may be nil.
func New(
	store repositories.SessionStore,
	transcriber repositories.Transcriber,
	summarizer repositories.Summarizer,
	hub *websocket.Hub,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts Options,
) *Pipeline {
	if opts.ChunkConcurrency <= 0 {
		opts.ChunkConcurrency = defaultChunkConcurrency
	}
	if opts.WorkerIdleTTL <= 0 {
		opts.WorkerIdleTTL = defaultWorkerIdleTTL
	}

	return &Pipeline{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		hub:         hub,
		d:           newDispatcher(opts.ChunkConcurrency, opts.WorkerIdleTTL, logger, m),
		logger:      logger,
		metrics:     m,
	}
}

// HandleEvent routes a validated inbound event onto the owning
// session's worker. It implements websocket.EventHandler.
func (p *Pipeline) HandleEvent(sender websocket.Subscriber, event interface{}) {
	switch ev := event.(type) {
	case *websocket.StartEvent:
		p.countEvent(websocket.EventTypeStart)
		p.d.dispatch(ev.SessionID, func(*worker) { p.handleStart(sender, ev) })

	case *websocket.AudioChunkEvent:
		p.countEvent(websocket.EventTypeAudioChunk)
		p.d.dispatch(ev.SessionID, func(w *worker) { p.handleAudioChunk(w, sender, ev) })

	case *websocket.PauseEvent:
		p.countEvent(websocket.EventTypePause)
		p.d.dispatch(ev.SessionID, func(*worker) {
			p.handleStatusChange(sender, ev.SessionID, entities.SessionStatusPaused)
		})

	case *websocket.ResumeEvent:
		p.countEvent(websocket.EventTypeResume)
		p.d.dispatch(ev.SessionID, func(*worker) {
			p.handleStatusChange(sender, ev.SessionID, entities.SessionStatusRecording)
		})

	case *websocket.StopEvent:
		p.countEvent(websocket.EventTypeStop)
		p.d.dispatch(ev.SessionID, func(*worker) { p.finalize(sender, ev.SessionID) })

	case *websocket.JoinEvent:
		p.countEvent(websocket.EventTypeJoin)
		p.handleJoin(sender, ev)

	default:
		sender.SendEvent(websocket.NewErrorEvent("unsupported event"))
	}
}

func (p *Pipeline) countEvent(t websocket.EventType) {
	if p.metrics != nil {
		p.metrics.EventsReceived.WithLabelValues(string(t)).Inc()
	}
}

// handleStart creates the session, joins the sender to its room, and
// announces RECORDING. A taken identifier is reported to the sender
// only and changes nothing.
func (p *Pipeline) handleStart(sender websocket.Subscriber, ev *websocket.StartEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	session := entities.NewSession(ev.SessionID, ev.UserID, ev.Title, ev.SourceType)
	if err := p.store.CreateSession(ctx, session); err != nil {
		if errors.Is(err, repositories.ErrSessionExists) {
			sender.SendEvent(websocket.NewErrorEvent(
				fmt.Sprintf("session %s already exists", ev.SessionID)))
			return
		}
		p.logger.Error("Failed to create session",
			zap.String("sessionID", ev.SessionID),
			zap.Error(err))
		sender.SendEvent(websocket.NewErrorEvent("failed to create session"))
		return
	}

	p.hub.Join(ev.SessionID, sender)
	p.hub.Broadcast(ev.SessionID, websocket.NewStatusEvent(ev.SessionID, entities.SessionStatusRecording))

	p.logger.Info("Session started",
		zap.String("sessionID", ev.SessionID),
		zap.String("userID", ev.UserID),
		zap.String("source", string(ev.SourceType)))
}

// handleJoin subscribes the sender to the session room. Reconnecting
// recorders use it to resume receiving broadcasts; the current status
// is replayed to the sender so its lifecycle mirror can resync.
func (p *Pipeline) handleJoin(sender websocket.Subscriber, ev *websocket.JoinEvent) {
	p.hub.Join(ev.SessionID, sender)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	detail, err := p.store.GetSessionDetail(ctx, ev.SessionID)
	if err != nil {
		if !errors.Is(err, repositories.ErrSessionNotFound) {
			p.logger.Error("Failed to load session on join",
				zap.String("sessionID", ev.SessionID),
				zap.Error(err))
		}
		return
	}
	sender.SendEvent(websocket.NewStatusEvent(detail.ID, detail.Status))
}

// handleStatusChange applies pause/resume. A missing session row is a
// silent no-op on the store side; the status broadcast is still issued
// so any watching room hears the transition.
func (p *Pipeline) handleStatusChange(sender websocket.Subscriber, sessionID string, status entities.SessionStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	outcome, err := p.store.SetStatus(ctx, sessionID, status)
	if err != nil {
		p.logger.Error("Failed to update session status",
			zap.String("sessionID", sessionID),
			zap.String("status", string(status)),
			zap.Error(err))
		sender.SendEvent(websocket.NewErrorEvent("failed to update session status"))
		return
	}
	if outcome == repositories.UpdateOutcomeNotFound {
		p.logger.Debug("Status update for unknown session",
			zap.String("sessionID", sessionID),
			zap.String("status", string(status)))
	}

	p.hub.Broadcast(sessionID, websocket.NewStatusEvent(sessionID, status))
}

// handleAudioChunk transcribes one segment and persists the result.
// Chunks are independent of each other: transcription runs off the
// serialized path, bounded by the worker's slot semaphore, and a bad
// chunk is dropped without aborting the session. A chunk finishing
// after the session moved on is still persisted and broadcast; chunks
// are additive and idempotently keyed by index.
func (p *Pipeline) handleAudioChunk(w *worker, sender websocket.Subscriber, ev *websocket.AudioChunkEvent) {
	w.slots <- struct{}{}

	go func() {
		defer func() { <-w.slots }()

		audio, err := base64.StdEncoding.DecodeString(ev.AudioData)
		if err != nil {
			sender.SendEvent(websocket.NewErrorEvent("audio_data is not valid base64"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
		defer cancel()

		started := time.Now()
		text, err := p.transcriber.Transcribe(ctx, audio, ev.MimeType)
		if p.metrics != nil {
			p.metrics.TranscriptionDuration.Observe(time.Since(started).Seconds())
		}
		if err != nil {
			// Tolerated: the chunk is simply not stored, the session
			// continues, later chunks still process.
			if p.metrics != nil {
				p.metrics.TranscriptionFailures.Inc()
			}
			p.logger.Warn("Transcription failed for chunk",
				zap.String("sessionID", ev.SessionID),
				zap.Int("index", ev.Index),
				zap.Error(err))
			return
		}
		if text == "" {
			if p.metrics != nil {
				p.metrics.ChunksSkipped.Inc()
			}
			return
		}

		chunk := entities.TranscriptChunk{
			SessionID: ev.SessionID,
			Index:     ev.Index,
			Text:      text,
			StartMs:   ev.StartMs,
			EndMs:     ev.EndMs,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.store.AppendChunk(ctx, chunk); err != nil {
			if p.metrics != nil {
				p.metrics.TranscriptionFailures.Inc()
			}
			p.logger.Error("Failed to persist transcript chunk",
				zap.String("sessionID", ev.SessionID),
				zap.Int("index", ev.Index),
				zap.Error(err))
			return
		}

		if p.metrics != nil {
			p.metrics.ChunksTranscribed.Inc()
		}
		p.hub.Broadcast(ev.SessionID, websocket.NewTranscriptEvent(chunk))
	}()
}

// finalize runs the stop sequence: announce PROCESSING, aggregate the
// stored chunks in index order, summarize, persist summary + COMPLETED
// atomically, and broadcast the hydrated session. Every step is
// idempotent against the same stored chunk set, so retrying a failed
// stop is safe; already-persisted chunks are never rolled back.
func (p *Pipeline) finalize(sender websocket.Subscriber, sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	if _, err := p.store.SetStatus(ctx, sessionID, entities.SessionStatusProcessing); err != nil {
		p.failFinalization(sender, sessionID, "failed to mark session processing", err)
		return
	}
	p.hub.Broadcast(sessionID, websocket.NewStatusEvent(sessionID, entities.SessionStatusProcessing))

	chunks, err := p.store.ListChunks(ctx, sessionID)
	if err != nil {
		p.failFinalization(sender, sessionID, "failed to load transcript", err)
		return
	}
	transcript := entities.AggregateTranscript(chunks)

	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		p.failFinalization(sender, sessionID, "failed to summarize transcript", err)
		return
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	outcome, err := p.store.CompleteSession(ctx, sessionID, summary)
	if err != nil {
		p.failFinalization(sender, sessionID, "failed to persist summary", err)
		return
	}
	if outcome == repositories.UpdateOutcomeNotFound {
		// Stale identifier: nothing to complete or broadcast.
		p.logger.Debug("Finalize for unknown session", zap.String("sessionID", sessionID))
		return
	}

	detail, err := p.store.GetSessionDetail(ctx, sessionID)
	if err != nil {
		p.failFinalization(sender, sessionID, "failed to load completed session", err)
		return
	}

	if p.metrics != nil {
		p.metrics.FinalizationsCompleted.Inc()
	}
	p.hub.Broadcast(sessionID, websocket.NewCompletedEvent(detail))

	p.logger.Info("Session completed",
		zap.String("sessionID", sessionID),
		zap.Int("chunks", len(detail.Chunks)))
}

// failFinalization forces the session to ERROR best-effort: a failure
// to even record the ERROR status is swallowed, not escalated. The
// sender gets an error event; the room gets the status broadcast.
func (p *Pipeline) failFinalization(sender websocket.Subscriber, sessionID, message string, cause error) {
	p.logger.Error("Finalization failed",
		zap.String("sessionID", sessionID),
		zap.String("reason", message),
		zap.Error(cause))
	if p.metrics != nil {
		p.metrics.FinalizationsFailed.Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if _, err := p.store.SetStatus(ctx, sessionID, entities.SessionStatusError); err != nil {
		p.logger.Warn("Failed to record ERROR status",
			zap.String("sessionID", sessionID),
			zap.Error(err))
	}

	p.hub.Broadcast(sessionID, websocket.NewStatusEvent(sessionID, entities.SessionStatusError))
	sender.SendEvent(websocket.NewErrorEvent(message))
}

// WorkerCount reports the live per-session workers, for observability
// and tests.
func (p *Pipeline) WorkerCount() int {
	return p.d.workerCount()
}
