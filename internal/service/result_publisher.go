package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/gradeflow/gradeflow-api/internal/grading"
)

// ResultPublisher posts consolidated results back to the originating queue
// once a submission finishes grading.
type ResultPublisher interface {
	Publish(ctx context.Context, queueName string, result grading.Result) error
}

type resultEnvelope struct {
	Source string         `json:"source"`
	Result grading.Result `json:"result"`
	SentAt time.Time      `json:"sent_at"`
}

type natsResultPublisher struct {
	conn        *nats.Conn
	subjectBase string
	nodeID      string
	logger      zerolog.Logger
}

// NewResultPublisher builds a NATS-backed publisher. A nil connection yields a
// publisher that drops results with a warning, which keeps single-process
// deployments runnable without a broker.
func NewResultPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) ResultPublisher {
	if subjectBase == "" {
		subjectBase = "grading.results"
	}

	return &natsResultPublisher{
		conn:        conn,
		subjectBase: subjectBase,
		nodeID:      uuid.NewString(),
		logger:      logger.With().Str("component", "result_publisher").Logger(),
	}
}

func (p *natsResultPublisher) Publish(ctx context.Context, queueName string, result grading.Result) error {
	if p.conn == nil {
		p.logger.Warn().Uint("submission_id", result.SubmissionID).Msg("no broker configured, dropping result")
		return nil
	}

	envelope := resultEnvelope{
		Source: p.nodeID,
		Result: result,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	subject := p.subjectBase
	if queueName != "" {
		subject = p.subjectBase + "." + sanitizeSubjectToken(queueName)
	}

	return p.conn.Publish(subject, payload)
}

func sanitizeSubjectToken(token string) string {
	replacer := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_")
	return replacer.Replace(token)
}
