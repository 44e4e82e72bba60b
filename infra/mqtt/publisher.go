package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	corelogger "github.com/kilianp07/trajplan/core/logger"
	"github.com/kilianp07/trajplan/core/planner"
)

// Publisher delivers accepted plans to their worker.
type Publisher interface {
	PublishPlan(ctx context.Context, plan planner.PlanAccepted) error
}

// TrajectoryPoint is one waypoint of a published trajectory.
type TrajectoryPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// T is Unix time in milliseconds.
	T int64 `json:"t"`
}

// ProfilePoint is one vertex of the arc-time profile.
type ProfilePoint struct {
	Arc     float64 `json:"arc"`
	Seconds float64 `json:"seconds"`
}

// TrajectoryMessage is the JSON payload sent to a worker.
type TrajectoryMessage struct {
	AttemptID  string            `json:"attempt_id"`
	WorkerID   string            `json:"worker_id"`
	Kind       string            `json:"kind"`
	AcceptedAt int64             `json:"accepted_at"`
	StartTime  int64             `json:"start_time"`
	FinishTime int64             `json:"finish_time"`
	Points     []TrajectoryPoint `json:"points"`
	Profile    []ProfilePoint    `json:"profile"`
}

// NewTrajectoryMessage converts an accepted plan to its wire form.
func NewTrajectoryMessage(plan planner.PlanAccepted) TrajectoryMessage {
	traj := plan.Trajectory.Composed()
	msg := TrajectoryMessage{
		AttemptID:  plan.AttemptID,
		WorkerID:   plan.WorkerID,
		Kind:       plan.Kind,
		AcceptedAt: plan.Time.UnixMilli(),
		StartTime:  plan.Trajectory.StartTime().UnixMilli(),
		FinishTime: plan.Trajectory.FinishTime().UnixMilli(),
	}
	for _, p := range traj.Points() {
		msg.Points = append(msg.Points, TrajectoryPoint{X: p.Location.X, Y: p.Location.Y, T: p.Time.UnixMilli()})
	}
	for _, v := range plan.Trajectory.ArcTimePath().Points() {
		msg.Profile = append(msg.Profile, ProfilePoint{Arc: v.X, Seconds: v.Y})
	}
	return msg
}

// TrajectoryPublisher implements Publisher using Eclipse Paho.
type TrajectoryPublisher struct {
	cli        pahoClient
	prefix     string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	logger     corelogger.Logger
}

// NewTrajectoryPublisher connects to the broker.
func NewTrajectoryPublisher(cfg Config, log corelogger.Logger) (*TrajectoryPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log = componentLogger(log)
	cli, err := connect(cfg, log)
	if err != nil {
		return nil, err
	}
	return &TrajectoryPublisher{
		cli:        cli,
		prefix:     cfg.TopicPrefix,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:     log,
	}, nil
}

// Topic returns the topic a worker's trajectories are published on.
func (p *TrajectoryPublisher) Topic(workerID string) string {
	return fmt.Sprintf("%s/%s/trajectory", p.prefix, workerID)
}

// PublishPlan sends the plan to the worker's topic, retrying with
// exponential backoff.
func (p *TrajectoryPublisher) PublishPlan(ctx context.Context, plan planner.PlanAccepted) error {
	if plan.WorkerID == "" {
		return fmt.Errorf("plan %s has no worker", plan.AttemptID)
	}
	payload, err := json.Marshal(NewTrajectoryMessage(plan))
	if err != nil {
		return err
	}
	topic := p.Topic(plan.WorkerID)
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("sent trajectory %s to %s", plan.AttemptID, topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.maxRetries {
			break
		}
		timer := time.NewTimer(p.backoff * time.Duration(1<<attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *TrajectoryPublisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
