// Package util holds the helpers shared by the integration tests: a
// containerised broker, a depot simulator answering schedules and pollers
// for HTTP endpoints.
package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremqtt "github.com/kilianp07/metroplan/core/mqtt"
)

const (
	ServerTimeout         = 5 * time.Second
	MosquittoReadyTimeout = 10 * time.Second

	pollInterval = 50 * time.Millisecond
)

// FreeAddr returns a loopback address with a port that was free when asked.
func FreeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	addr := l.Addr().String()
	return addr, l.Close()
}

// WaitForHTTP polls url until it responds with HTTP 200 or the context is
// done.
func WaitForHTTP(ctx context.Context, url string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready: %w", ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// WaitForMetric polls the given metrics URL until the provided substring is
// found in the output or the context is done.
func WaitForMetric(ctx context.Context, metricsURL, substr string) error {
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, metricsURL, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			body, rerr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if rerr != nil {
				return fmt.Errorf("read metrics body: %w", rerr)
			}
			if strings.Contains(string(body), substr) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("metric %q not found: %w", substr, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}

// DepotSimulator acknowledges schedules on behalf of depots.
type DepotSimulator struct {
	cli    paho.Client
	prefix string
	reject map[string]bool

	mu       sync.Mutex
	received map[string]coremqtt.ScheduleMessage
}

// StartDepotSimulator connects to broker and acknowledges every schedule
// published under prefix. Depots listed in reject refuse their schedule.
func StartDepotSimulator(broker, prefix string, reject ...string) (*DepotSimulator, error) {
	sim := &DepotSimulator{prefix: prefix, reject: map[string]bool{}, received: map[string]coremqtt.ScheduleMessage{}}
	for _, id := range reject {
		sim.reject[id] = true
	}
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID(fmt.Sprintf("depot-sim-%d", time.Now().UnixNano()))
	sim.cli = paho.NewClient(opts)
	if token := sim.cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	if token := sim.cli.Subscribe(prefix+"/+/schedule", 1, sim.onSchedule); token.Wait() && token.Error() != nil {
		sim.cli.Disconnect(100)
		return nil, token.Error()
	}
	return sim, nil
}

func (s *DepotSimulator) onSchedule(c paho.Client, m paho.Message) {
	var msg coremqtt.ScheduleMessage
	if err := json.Unmarshal(m.Payload(), &msg); err != nil {
		return
	}
	s.mu.Lock()
	s.received[msg.DepotID] = msg
	s.mu.Unlock()
	ack := coremqtt.AckMessage{CommandID: msg.CommandID, DepotID: msg.DepotID, Accepted: !s.reject[msg.DepotID]}
	if !ack.Accepted {
		ack.Reason = "maintenance window"
	}
	payload, _ := json.Marshal(ack)
	c.Publish(coremqtt.DepotAckTopic(s.prefix, msg.DepotID), 1, false, payload)
}

// Received returns the last schedule a depot received.
func (s *DepotSimulator) Received(depotID string) (coremqtt.ScheduleMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.received[depotID]
	return msg, ok
}

// Close disconnects the simulator.
func (s *DepotSimulator) Close() { s.cli.Disconnect(100) }

// StartMosquitto runs an anonymous Mosquitto 2 broker in a container and
// returns its URL once a client can connect. The returned function removes
// the container.
func StartMosquitto(ctx context.Context) (string, func(), error) {
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "eclipse-mosquitto:2.0",
			ExposedPorts: []string{"1883/tcp"},
			Cmd:          []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
			WaitingFor:   wait.ForListeningPort("1883/tcp"),
		},
		Started: true,
	})
	if err != nil {
		return "", nil, fmt.Errorf("start mosquitto: %w", err)
	}
	stop := func() { _ = cont.Terminate(context.Background()) }

	endpoint, err := cont.PortEndpoint(ctx, "1883/tcp", "tcp")
	if err != nil {
		stop()
		return "", nil, err
	}
	readyCtx, cancel := context.WithTimeout(ctx, MosquittoReadyTimeout)
	defer cancel()
	if err := brokerReady(readyCtx, endpoint); err != nil {
		stop()
		return "", nil, err
	}
	return endpoint, stop, nil
}

func brokerReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("broker-ready-check").SetConnectTimeout(time.Second)
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		if token.WaitTimeout(2*time.Second) && token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("broker %s not ready: %w", broker, ctx.Err())
		case <-time.After(pollInterval):
		}
	}
}
