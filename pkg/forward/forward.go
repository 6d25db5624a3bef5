// Package forward pushes IR events, sensor readings and counters to the
// home-automation server over HTTP. Delivery is fire-and-forget: transport
// failures are logged and never surfaced to the IR handling path.
package forward

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hausnet/irbridge/pkg/config"
	"github.com/hausnet/irbridge/pkg/ircode"
	"github.com/hausnet/irbridge/pkg/logger"
	"github.com/hausnet/irbridge/pkg/metrics"
)

// Event kinds reported to metrics.
const (
	KindCode     = "code"
	KindSensor   = "sensor"
	KindCounters = "counters"
)

// Gateway serializes records into the automation server's request formats
// and issues them. Settings are re-read from the runtime configuration on
// every push.
type Gateway struct {
	settings func() config.ForwardingConfig
	client   *http.Client
	log      *logger.Logger
}

// NewGateway creates a forwarding gateway. settings is called on every push
// so runtime configuration changes take effect immediately.
func NewGateway(settings func() config.ForwardingConfig, log *logger.Logger) *Gateway {
	return &Gateway{
		settings: settings,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// baseURL builds the request prefix targeting one server-side variable.
func baseURL(cfg config.ForwardingConfig, variable string) string {
	return fmt.Sprintf("http://%s:%d/%s?cmd.dummy=set%%20%s%%20",
		cfg.Host, cfg.Port, cfg.Endpoint, variable)
}

// ForwardCode pushes one IR record.
func (g *Gateway) ForwardCode(rec ircode.Record) error {
	cfg := g.settings()
	url := baseURL(cfg, cfg.CodeVariable) + ircode.RenderWire(rec, ircode.ParseWireFormat(cfg.Format))
	return g.push(KindCode, url)
}

// ForwardSensor pushes a climate reading. Failed readings are reported with
// the "-" placeholder.
func (g *Gateway) ForwardSensor(temperature, humidity string) error {
	cfg := g.settings()
	url := baseURL(cfg, cfg.SensorVariable) +
		fmt.Sprintf("temperature:%%20%s%%20humidity:%%20%s&XHR=1", temperature, humidity)
	return g.push(KindSensor, url)
}

// ForwardCounters pushes the received/transferred counters.
func (g *Gateway) ForwardCounters(received, transferred uint64) error {
	cfg := g.settings()
	url := baseURL(cfg, cfg.SensorVariable) +
		fmt.Sprintf("received:%%20%d%%20transferred:%%20%d&XHR=1", received, transferred)
	return g.push(KindCounters, url)
}

func (g *Gateway) push(kind, url string) error {
	resp, err := g.client.Get(url)
	if err != nil {
		g.log.Warn("forward failed", "kind", kind, "error", err)
		metrics.IncForwarded(kind, metrics.StatusFailed)
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		g.log.Warn("forward rejected", "kind", kind, "status", resp.Status)
		metrics.IncForwarded(kind, metrics.StatusFailed)
		return fmt.Errorf("forward rejected: %s", resp.Status)
	}

	g.log.Debug("forwarded", "kind", kind, "url", url)
	metrics.IncForwarded(kind, metrics.StatusSuccess)
	return nil
}
