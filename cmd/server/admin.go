package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"dwarfhold.dev/internal/persistence/indexdb"
	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/jobs"
	"dwarfhold.dev/internal/sim/pathfind"
	"dwarfhold.dev/internal/sim/scheduler"
	"dwarfhold.dev/internal/sim/world"
	"dwarfhold.dev/internal/transport/ws"
)

// admin serves health, metrics and the local-only inspection endpoints.
// pool, hub and index may be nil.
type admin struct {
	world   *world.World
	sched   *scheduler.Scheduler
	hub     *ws.Server
	pool    *pathfind.Pool
	finder  pathfind.Finder
	board   *jobs.Board
	index   *indexdb.SQLiteIndex
	maxIter int
}

func (a *admin) routes(mux *http.ServeMux, enableAdmin bool) {
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/metrics", a.metrics)
	if !enableAdmin {
		return
	}
	mux.HandleFunc("/admin/v1/state", a.loopbackOnly(a.state))
	mux.HandleFunc("/admin/v1/pause", a.loopbackOnly(a.pause))
	mux.HandleFunc("/admin/v1/audits", a.loopbackOnly(a.audits))
	mux.HandleFunc("/admin/v1/deaths", a.loopbackOnly(a.deaths))
	mux.HandleFunc("/admin/v1/jobs", a.loopbackOnly(a.jobs))
	mux.HandleFunc("/admin/v1/jobs/complete", a.loopbackOnly(a.completeJob))
	mux.HandleFunc("/admin/v1/path", a.loopbackOnly(a.path))
}

func (a *admin) loopbackOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		h(rw, r)
	}
}

func (a *admin) metrics(rw http.ResponseWriter, r *http.Request) {
	m := a.world.Metrics()
	rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

	gauge := func(name, help string, v any) {
		fmt.Fprintf(rw, "# HELP %s %s\n", name, help)
		fmt.Fprintf(rw, "# TYPE %s gauge\n", name)
		fmt.Fprintf(rw, "%s %v\n", name, v)
	}
	gauge("dwarfhold_world_tick", "Current world tick.", a.world.CurrentTick())
	gauge("dwarfhold_creatures_alive", "Living creatures after the last tick.", m.Alive)
	gauge("dwarfhold_creatures_dead", "Dead creatures still in the registry.", m.Dead)
	gauge("dwarfhold_tick_moves", "Creature moves in the last tick.", m.Moves)
	gauge("dwarfhold_tick_decisions", "Decisions taken in the last tick.", m.Decisions)
	gauge("dwarfhold_pending_searches", "Path searches awaiting adoption.", m.PendingSearches)
	gauge("dwarfhold_queued_edits", "Terrain edits waiting for the next tick.", m.QueuedEdits)
	gauge("dwarfhold_world_step_ms", "Last tick step duration in milliseconds.", fmt.Sprintf("%.3f", m.StepMS))

	fmt.Fprintf(rw, "# HELP dwarfhold_deaths_total Creature deaths since start.\n")
	fmt.Fprintf(rw, "# TYPE dwarfhold_deaths_total counter\n")
	fmt.Fprintf(rw, "dwarfhold_deaths_total %d\n", m.DeathsTotal)

	if a.sched != nil {
		paused := 0
		if a.sched.Paused() {
			paused = 1
		}
		gauge("dwarfhold_scheduler_paused", "1 while the scheduler is paused.", paused)
	}
	if a.hub != nil {
		gauge("dwarfhold_ws_clients", "Connected websocket clients.", a.hub.Clients())
	}
	if a.pool != nil {
		st := a.pool.Stats()
		fmt.Fprintf(rw, "# HELP dwarfhold_pathfind_searches_total Searches by state.\n")
		fmt.Fprintf(rw, "# TYPE dwarfhold_pathfind_searches_total counter\n")
		fmt.Fprintf(rw, "dwarfhold_pathfind_searches_total{state=%q} %d\n", "submitted", st.Submitted)
		fmt.Fprintf(rw, "dwarfhold_pathfind_searches_total{state=%q} %d\n", "completed", st.Completed)
		gauge("dwarfhold_pathfind_in_flight", "Searches currently running.", st.InFlight)
	}
	if a.index != nil {
		st := a.index.Stats()
		gauge("dwarfhold_index_queue_depth", "Index writer backlog.", st.QueueDepth)
		fmt.Fprintf(rw, "# HELP dwarfhold_index_dropped_total Index writes dropped by kind.\n")
		fmt.Fprintf(rw, "# TYPE dwarfhold_index_dropped_total counter\n")
		fmt.Fprintf(rw, "dwarfhold_index_dropped_total{kind=%q} %d\n", "tick", st.DropTickTotal)
		fmt.Fprintf(rw, "dwarfhold_index_dropped_total{kind=%q} %d\n", "audit", st.DropAuditTotal)
	}
}

func (a *admin) state(rw http.ResponseWriter, r *http.Request) {
	resp := struct {
		Tick    uint64             `json:"tick"`
		Paused  bool               `json:"paused"`
		Dims    world.Dims         `json:"dims"`
		Metrics world.Metrics      `json:"metrics"`
		Pool    pathfind.PoolStats `json:"pool"`
		Clients int                `json:"clients"`
	}{
		Tick:    a.world.CurrentTick(),
		Dims:    a.world.Dims(),
		Metrics: a.world.Metrics(),
	}
	if a.sched != nil {
		resp.Paused = a.sched.Paused()
	}
	if a.pool != nil {
		resp.Pool = a.pool.Stats()
	}
	if a.hub != nil {
		resp.Clients = a.hub.Clients()
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *admin) pause(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if a.sched == nil {
		http.Error(rw, "no scheduler", http.StatusServiceUnavailable)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]bool{"paused": a.sched.TogglePause()})
}

func (a *admin) audits(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		http.Error(rw, "index disabled", http.StatusServiceUnavailable)
		return
	}
	p, err := parsePos(r.URL.Query().Get("pos"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := a.index.AuditsAt(r.Context(), p.X, p.Y, p.Z)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"pos": p, "audits": rows})
}

func (a *admin) deaths(rw http.ResponseWriter, r *http.Request) {
	if a.index == nil {
		http.Error(rw, "index disabled", http.StatusServiceUnavailable)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := a.index.Deaths(r.Context(), limit)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{"deaths": rows})
}

type postJobReq struct {
	Labor creature.Labor `json:"labor"`
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Z     int            `json:"z"`
}

func (a *admin) jobs(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(rw, http.StatusOK, map[string]any{"jobs": a.board.List()})
	case http.MethodPost:
		var req postJobReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(rw, "bad json", http.StatusBadRequest)
			return
		}
		if !slices.Contains(creature.AllLabors, req.Labor) {
			http.Error(rw, "unknown labor", http.StatusBadRequest)
			return
		}
		target := grid.P(req.X, req.Y, req.Z)
		if d := a.world.Dims(); target.X < 0 || target.Y < 0 || target.Z < 0 ||
			target.X >= d.Width || target.Y >= d.Height || target.Z >= d.Depth {
			http.Error(rw, "out of bounds", http.StatusBadRequest)
			return
		}
		id := a.board.Post(req.Labor, target)
		writeJSON(rw, http.StatusCreated, map[string]string{"id": id})
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *admin) completeJob(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	j, err := a.board.Complete(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(rw, http.StatusOK, j)
}

func (a *admin) path(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parsePos(q.Get("from"))
	if err != nil {
		http.Error(rw, "from: "+err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parsePos(q.Get("to"))
	if err != nil {
		http.Error(rw, "to: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := a.finder.Find(r.Context(), a.world.Topology(), from, to, a.maxIter).Wait(r.Context())
	if err != nil {
		http.Error(rw, err.Error(), http.StatusRequestTimeout)
		return
	}
	writeJSON(rw, http.StatusOK, map[string]any{
		"outcome":    res.Outcome.String(),
		"iterations": res.Iterations,
		"path":       res.Path,
	})
}

// parsePos reads "x,y,z".
func parsePos(s string) (grid.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return grid.Pos{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return grid.Pos{}, fmt.Errorf("bad coordinate %q", part)
		}
		v[i] = n
	}
	return grid.P(v[0], v[1], v[2]), nil
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
