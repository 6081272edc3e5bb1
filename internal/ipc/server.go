package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"veld/internal/kernel"
	"veld/internal/logging"
	"veld/internal/maintenance"
)

// Server exposes kernel control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	kernel    *kernel.Kernel
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, k *kernel.Kernel, logger *slog.Logger) (*Server, error) {
	if k == nil {
		return nil, errors.New("ipc server requires kernel")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{kernel: k, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Veld", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		kernel:    k,
		logger:    logging.NewComponentLogger(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"),
				)
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
		)
	}
}

// service implements the RPC surface.
type service struct {
	kernel *kernel.Kernel
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	st := s.kernel.Status(s.ctx)

	tables := make([]TableStatus, 0, len(st.Tables))
	for _, t := range st.Tables {
		tables = append(tables, TableStatus{Name: t.Name, Entries: t.Entries, Dead: t.Dead, Removed: t.Removed})
	}

	*resp = StatusResponse{
		PID:           st.PID,
		UptimeSeconds: int64(st.Uptime.Seconds()),
		HeapUsed:      st.HeapUsed,
		HeapLimit:     st.HeapLimit,
		LiveObjects:   st.LiveObjects,
		FreedObjects:  st.FreedObjects,
		Worker: WorkerStatus{
			QueueDepth:     st.Worker.QueueDepth,
			InflightID:     st.Worker.InflightID,
			Iterations:     st.Worker.Iterations,
			Delivered:      st.Worker.Delivered,
			DispatchErrors: st.Worker.DispatchErrors,
		},
		Tables:       tables,
		SensorTrips:  st.SensorTrips,
		GCDelivered:  st.GCDelivered,
		GCDropped:    st.GCDropped,
		JournalCount: st.JournalCount,
		LockPath:     st.LockPath,
		LastError:    st.LastError,
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	deliveries, err := s.kernel.RecentDeliveries(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	records := make([]DeliveryRecord, 0, len(deliveries))
	for _, d := range deliveries {
		records = append(records, DeliveryRecord{
			ID:          d.ID,
			EventID:     d.EventID,
			Kind:        d.Kind,
			Message:     d.Message,
			ObjectRefs:  d.ObjectRefs,
			CodeRefs:    d.CodeRefs,
			DeliveredAt: d.DeliveredAt,
		})
	}
	resp.Deliveries = records
	return nil
}

func (s *service) Inject(req InjectRequest, resp *InjectResponse) error {
	kind := maintenance.Kind(strings.TrimSpace(req.Kind))
	if kind == "" {
		kind = maintenance.KindCodeUnitLoaded
	}
	id, err := s.kernel.InjectEvent(kind, req.Message, req.ObjectCount, req.CodeCount)
	if err != nil {
		return err
	}
	resp.EventID = id
	return nil
}

func (s *service) GC(req GCRequest, resp *GCResponse) error {
	rec := s.kernel.RunGC(req.Cause)
	resp.FreedBytes = rec.FreedBytes
	resp.PauseMicros = rec.Pause.Microseconds()
	return nil
}

func (s *service) Churn(req ChurnRequest, resp *ChurnResponse) error {
	if err := s.kernel.Churn(req.Count); err != nil {
		return err
	}
	resp.Interned = req.Count
	return nil
}

func (s *service) NotifyTest(_ NotifyTestRequest, resp *NotifyTestResponse) error {
	if err := s.kernel.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "test notification sent"
	return nil
}
