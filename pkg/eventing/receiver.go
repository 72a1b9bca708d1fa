package eventing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tatimblin/sonos-local-controller/pkg/log"
	"github.com/tatimblin/sonos-local-controller/pkg/upnp"
)

func init() {
	// NOTIFY is not one of chi's registered methods.
	chi.RegisterMethod(upnp.MethodNotify)
}

// maxNotifyBody bounds a notification body. Topology snapshots of large
// fleets run to a few hundred KB.
const maxNotifyBody = 2 << 20

// rawNotification is one validated but unparsed notification, queued
// from the HTTP handler to the dispatcher.
type rawNotification struct {
	token      string
	seq        uint32
	body       []byte
	remoteAddr string
	received   time.Time
}

// receiver is the embedded HTTP endpoint devices deliver notifications
// to. It binds the first free port in the configured range and answers
// every notification immediately; parsing happens on the dispatcher.
type receiver struct {
	listener net.Listener
	server   *http.Server
	port     int
	host     string
	fallback bool

	registry *registry
	raw      chan<- rawNotification
	logger   log.Logger
}

// newReceiver binds a listener and prepares the HTTP server. The
// listener is live after return; Serve starts on start().
func newReceiver(cfg *Config, reg *registry, raw chan<- rawNotification, logger log.Logger) (*receiver, error) {
	var listener net.Listener
	var port int
	for p := cfg.PortRangeStart; p <= cfg.PortRangeEnd; p++ {
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", p))
		if err == nil {
			listener, port = l, p
			break
		}
	}
	if listener == nil {
		return nil, fmt.Errorf("%w: %d-%d", ErrNoFreePort, cfg.PortRangeStart, cfg.PortRangeEnd)
	}

	rc := &receiver{
		listener: listener,
		port:     port,
		registry: reg,
		raw:      raw,
		logger:   logger,
	}

	rc.host = cfg.CallbackHost
	if rc.host == "" {
		if host, ok := detectHost(); ok {
			rc.host = host
		} else {
			rc.host = "127.0.0.1"
			rc.fallback = true
		}
	}

	router := chi.NewRouter()
	router.MethodFunc(upnp.MethodNotify, "/notify/{token}", rc.handleNotify)
	rc.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return rc, nil
}

// start begins serving. The error channel reports an unexpected server
// exit; normal shutdown is filtered out.
func (rc *receiver) start() {
	go func() {
		if err := rc.server.Serve(rc.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rc.logger.Log(log.Event{
				Timestamp: time.Now(),
				Category:  log.CategoryLifecycle,
				Error:     &log.ErrorEventData{Message: err.Error(), Context: "receiver serve"},
			})
		}
	}()
}

func (rc *receiver) shutdown(ctx context.Context) error {
	return rc.server.Shutdown(ctx)
}

// callbackURL returns the URL handed to a device for one subscription.
func (rc *receiver) callbackURL(token string) string {
	return fmt.Sprintf("http://%s:%d/notify/%s", rc.host, rc.port, token)
}

func (rc *receiver) handleNotify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	sub, ok := rc.registry.lookupToken(token)
	if !ok {
		// Unknown callback: a stale lease from an earlier run. Reject
		// so the device stops delivering on it.
		http.Error(w, "unknown subscription", http.StatusPreconditionFailed)
		return
	}

	sid := r.Header.Get(upnp.HeaderSID)
	if !sub.matchesSID(sid) {
		http.Error(w, "unknown SID", http.StatusPreconditionFailed)
		return
	}

	seq, err := upnp.ParseSeq(r.Header.Get(upnp.HeaderSEQ))
	if err != nil {
		http.Error(w, "bad SEQ", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotifyBody))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	rc.logger.Log(log.Event{
		Timestamp:  time.Now(),
		Category:   log.CategoryNotify,
		DeviceID:   sub.key.Device.String(),
		Service:    sub.key.Service.String(),
		SID:        sid,
		RemoteAddr: r.RemoteAddr,
		Notify:     &log.NotifyEvent{Seq: seq, Size: len(body)},
	})

	// Hand off and answer immediately; a blocked dispatcher must not
	// stall the device's delivery loop.
	select {
	case rc.raw <- rawNotification{
		token:      token,
		seq:        seq,
		body:       body,
		remoteAddr: r.RemoteAddr,
		received:   time.Now(),
	}:
	default:
		rc.logger.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryNotify,
			SID:       sid,
			Error:     &log.ErrorEventData{Message: "dispatch queue full, notification dropped", Context: "receiver"},
		})
	}

	w.WriteHeader(http.StatusOK)
}

// detectHost returns the first non-loopback unicast IPv4 address of an
// up interface. Devices must be able to reach this address for
// notifications to arrive.
func detectHost() (string, bool) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			return ip.String(), true
		}
	}
	return "", false
}
