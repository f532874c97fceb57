// Package metrics exposes device traffic counters and sessions over HTTP.
package metrics

import (
	"expvar"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/temoto/devsim/internal/session"
	"github.com/temoto/devsim/log2"
	telenet "github.com/temoto/devsim/tele/net"
)

const namespace = "devsim"

type Source struct {
	DeviceID string
	// Stat counts discovery and telemetry traffic, Command counts command channel.
	Stat     *telenet.SessionStat
	Command  *telenet.SessionStat
	Sessions func() []session.Session
}

func NewRegistry(src Source) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	labels := prometheus.Labels{"device_id": src.DeviceID}

	counter := func(name, help string, extra prometheus.Labels, v *expvar.Int) {
		cl := prometheus.Labels{}
		for k, x := range labels {
			cl[k] = x
		}
		for k, x := range extra {
			cl[k] = x
		}
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        name,
			Help:        help,
			ConstLabels: cl,
		}, func() float64 { return float64(v.Value()) }))
	}
	directions := func(channel string, ss *telenet.SessionStat) {
		for _, dir := range []struct {
			name string
			c    *telenet.Counters
		}{{"recv", &ss.Recv}, {"send", &ss.Send}} {
			for _, kind := range []struct {
				name string
				p    *telenet.CountSizePair
			}{{"discovery", &dir.c.Discovery}, {"telemetry", &dir.c.Tele}, {"command", &dir.c.Cmd}} {
				l := prometheus.Labels{"channel": channel, "direction": dir.name, "kind": kind.name}
				counter("messages_total", "Protocol messages by direction and kind.", l, &kind.p.Count)
				counter("message_bytes_total", "Protocol message payload bytes.", l, &kind.p.Size)
			}
		}
		l := prometheus.Labels{"channel": channel}
		counter("dropped_total", "Undecodable or invalid inbound messages.", l, &ss.Drop)
		counter("errors_total", "Failed sends and rejected commands.", l, &ss.Error)
		counter("connections_total", "Accepted stream connections.", l, &ss.Conn)
	}
	if src.Stat != nil {
		directions("datagram", src.Stat)
	}
	if src.Command != nil {
		directions("stream", src.Command)
	}
	if src.Sessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "sessions_active",
			Help:        "Gateways currently receiving telemetry.",
			ConstLabels: labels,
		}, func() float64 { return float64(len(src.Sessions())) }))
	}
	return reg
}

type sessionJSON struct {
	Gateway  string    `json:"gateway"`
	LastSeen time.Time `json:"last_seen"`
}

func init() { gin.SetMode(gin.ReleaseMode) }

func NewRouter(reg *prometheus.Registry, src Source) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	r.GET("/sessions", func(c *gin.Context) {
		out := []sessionJSON{}
		if src.Sessions != nil {
			for _, s := range src.Sessions() {
				out = append(out, sessionJSON{Gateway: s.Key.String(), LastSeen: s.LastSeen.UTC()})
			}
		}
		c.JSON(http.StatusOK, gin.H{"device_id": src.DeviceID, "sessions": out})
	})
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

type Server struct {
	log *log2.Log
	ll  net.Listener
	srv *http.Server
}

// Listen starts HTTP server in background.
func Listen(log *log2.Log, addr string, h http.Handler) (*Server, error) {
	ll, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Annotatef(err, "metrics listen addr=%s", addr)
	}
	s := &Server{
		log: log,
		ll:  ll,
		srv: &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second},
	}
	go func() {
		if err := s.srv.Serve(ll); err != nil && err != http.ErrServerClosed {
			s.log.Errorf("metrics serve err=%v", err)
		}
	}()
	log.Infof("metrics listen addr=%s", ll.Addr())
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.ll.Addr() }

func (s *Server) Close() error { return s.srv.Close() }
