package e2e

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/metroplan/app"
	"github.com/kilianp07/metroplan/config"
	"github.com/kilianp07/metroplan/core/factory"
	"github.com/kilianp07/metroplan/infra/mqtt"
	"github.com/kilianp07/metroplan/test/util"
)

const (
	influxOrg    = "metro"
	influxBucket = "planning"
	influxToken  = "e2e-token"
)

// junitReport is a minimal JUnit XML report so CI systems can display the
// results.
type junitReport struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	Name    string  `xml:"name,attr"`
	Failure *string `xml:"failure,omitempty"`
	Time    float64 `xml:"time,attr"`
}

func writeJUnit(path string, rep junitReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	return enc.Encode(rep)
}

// startInflux starts an InfluxDB 2.7 container initialised with the test
// organisation, bucket and token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "metro",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "metro-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

func waitCount(ctx context.Context, t *testing.T, cli *InfluxClient, measurement, field string, tags map[string]string, want int) {
	t.Helper()
	var got int
	var err error
	for i := 0; i < 50; i++ {
		got, err = cli.Count(ctx, measurement, field, tags)
		if err == nil && got >= want {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("%s.%s: got %d records, want %d (last error: %v)", measurement, field, got, want, err)
}

// Test_E2E_PlanPipeline plans the default network through the HTTP API,
// distributes the schedule to simulated depots over Mosquitto and checks
// what landed in InfluxDB.
func Test_E2E_PlanPipeline(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	start := time.Now()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	defer cleanup()
	t.Logf("InfluxDB started at %s", influxURL)
	t.Logf("Mosquitto started at %s", broker)

	sim, err := util.StartDepotSimulator(broker, mqtt.DefaultTopicPrefix, "103")
	if err != nil {
		t.Fatalf("depot simulator: %v", err)
	}
	defer sim.Close()

	addr, err := util.FreeAddr()
	if err != nil {
		t.Fatalf("free addr: %v", err)
	}
	cfg := config.Default()
	cfg.Server.Addr = addr
	cfg.Log.Level = "warn"
	cfg.Planner.Dispatch.Distribute = true
	cfg.Planner.Dispatch.AckTimeoutSeconds = 3
	cfg.Planner.Prediction.Jitter = 0
	cfg.MQTT = factory.ModuleConfig{Type: "paho", Conf: map[string]any{"broker": broker, "client_id": "metroplan-e2e"}}
	cfg.Metrics.Sinks = []factory.ModuleConfig{{
		Type: "influx",
		Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket},
	}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	defer svc.Close() //nolint:errcheck

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = svc.Run(runCtx) }()

	readyCtx, readyCancel := context.WithTimeout(ctx, util.ServerTimeout)
	defer readyCancel()
	if err := util.WaitForHTTP(readyCtx, "http://"+addr+"/healthz"); err != nil {
		t.Fatalf("api: %v", err)
	}

	resp, err := http.Post("http://"+addr+"/api/plan/network", "application/json",
		strings.NewReader(`{"hours":[8],"weekday":1,"weather":0,"event":0}`))
	if err != nil {
		t.Fatalf("plan request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plan status %d: %s", resp.StatusCode, body)
	}

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	waitCount(ctx, t, cli, "plan_run", "total_trains", nil, 1)
	waitCount(ctx, t, cli, "line_demand", "passengers", map[string]string{"hour": "8"}, 3)
	waitCount(ctx, t, cli, "depot_induction", "trains", nil, 3)
	waitCount(ctx, t, cli, "schedule_delivery", "latency_ms", map[string]string{"acknowledged": "true"}, 2)
	waitCount(ctx, t, cli, "schedule_delivery", "latency_ms", map[string]string{"acknowledged": "false", "depot_id": "103"}, 1)

	if msg, ok := sim.Received("101"); !ok || len(msg.Inductions) != 1 || msg.Inductions[0].Trains != 5 {
		t.Fatalf("depot 101 schedule: %+v (received %v)", msg, ok)
	}

	rep := junitReport{Name: "e2e", Tests: 1, Cases: []junitTestCase{{Name: "Test_E2E_PlanPipeline", Time: time.Since(start).Seconds()}}}
	if err := writeJUnit(filepath.Join(t.TempDir(), "e2e.xml"), rep); err != nil {
		t.Logf("write junit: %v", err)
	}
}
