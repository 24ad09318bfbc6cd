// Package stt provides speech-to-text gateways. The production
// implementation calls Google Cloud Speech-to-Text in batch mode, one
// request per audio segment.
package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/khairulh/notulen/domain/repositories"
)

const defaultSampleRateHertz = 48000

// GoogleTranscriber implements repositories.Transcriber on Google
// Cloud Speech-to-Text. Segments recorded in the browser arrive as
// short self-contained containers, so batch recognition fits better
// than a long-lived streaming session.
type GoogleTranscriber struct {
	client   *speech.Client
	language string
	logger   *zap.Logger
}

// NewGoogleTranscriber creates the gateway. Credentials come from the
// standard GOOGLE_APPLICATION_CREDENTIALS environment.
func NewGoogleTranscriber(ctx context.Context, language string, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleTranscriber{
		client:   client,
		language: language,
		logger:   logger,
	}, nil
}

// Transcribe implements repositories.Transcriber. A segment in which
// no speech was detected yields an empty string with a nil error.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	encoding, err := getAudioEncoding(mimeType)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: defaultSampleRateHertz,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{
				Content: audio,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			// Take the best alternative
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	g.logger.Debug("Transcribed audio segment",
		zap.Int("audioSize", len(audio)),
		zap.Int("textLength", len(text)))
	return text, nil
}

// Close releases the underlying gRPC connection.
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// getAudioEncoding converts the segment MIME type to a Google Speech
// API enum
func getAudioEncoding(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	// Strip codec parameters like "audio/webm;codecs=opus"
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	case "audio/ogg", "audio/opus":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "audio/wav", "audio/l16", "audio/pcm":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "audio/flac":
		return speechpb.RecognitionConfig_FLAC, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported mime type: %s", mimeType)
	}
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)
