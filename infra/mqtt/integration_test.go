package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/trajplan/infra/logger"
)

// TestIntegration publishes a trajectory through a real Mosquitto broker.
func TestIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:1.6",
			ExposedPorts: []string{"1883/tcp"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("sub"))
	require.Eventually(t, func() bool {
		tok := sub.Connect()
		return tok.WaitTimeout(2*time.Second) && tok.Error() == nil
	}, 10*time.Second, 500*time.Millisecond)
	defer sub.Disconnect(100)

	got := make(chan []byte, 1)
	tok := sub.Subscribe("workers/+/trajectory", 1, func(_ paho.Client, m paho.Message) { got <- m.Payload() })
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	pub, err := NewTrajectoryPublisher(Config{Broker: broker, ClientID: "pub", QoS: 1}, logger.NopLogger{})
	require.NoError(t, err)
	defer pub.Disconnect()
	require.NoError(t, pub.PublishPlan(ctx, acceptedPlan(t, "agv-9")))

	select {
	case payload := <-got:
		var msg TrajectoryMessage
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, "agv-9", msg.WorkerID)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for trajectory")
	}
}
