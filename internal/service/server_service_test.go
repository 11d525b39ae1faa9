package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"city.newnan/mc-status/internal/model"
	"city.newnan/mc-status/pkg/mccontrol"
	"city.newnan/mc-status/pkg/mcparse"
)

type fakeExecutor struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	panics    map[string]bool
	calls     []string
	connected bool
}

func (f *fakeExecutor) Execute(ctx context.Context, cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cmd)
	if f.panics[cmd] {
		panic("unexpected response shape")
	}
	if err := f.errs[cmd]; err != nil {
		return "", err
	}
	return f.responses[cmd], nil
}

func (f *fakeExecutor) IsConnected() bool { return f.connected }

type fakeQuerier struct {
	status *mccontrol.ServerStatus
	err    error
}

func (f *fakeQuerier) Query(ctx context.Context) (*mccontrol.ServerStatus, error) {
	return f.status, f.err
}

type namer map[string]string

func (n namer) Display(raw string) string {
	if v, ok := n[raw]; ok {
		return v
	}
	return mcparse.FallbackDimensionName(raw)
}

func entity(pos, dim, extra string) string {
	return "Player has the following entity data: {" + pos + ", Dimension: \"" + dim + "\", " + extra + "}"
}

func TestPlayerInfo_MalformedPositionKeepsPlayer(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"list":                  "There are 3 of a max of 20 players online: Alex, Steve, Notch",
		"data get entity Alex":  entity("Pos: [1.04d, 64.0d, -2.25d]", "minecraft:overworld", "Health: 20.0f, foodLevel: 20, XpLevel: 5"),
		"data get entity Steve": entity("Pos: [1.0d, oops]", "minecraft:the_nether", "Health: 18s, foodLevel: 12"),
		"data get entity Notch": entity("Pos: [100.56d, 70.0d, 3.0d]", "minecraft:the_end", "XpLevel: 30"),
	}}
	svc := NewServerService(exec, &fakeQuerier{}, namer{"minecraft:overworld": "主世界"}, "")

	players, err := svc.PlayerInfo(context.Background())
	if err != nil {
		t.Fatalf("PlayerInfo: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("players = %+v, want 3 entries", players)
	}

	byName := map[string]model.PlayerInfo{}
	for _, p := range players {
		byName[p.Name] = p
	}

	alex := byName["Alex"]
	if alex.Dimension != "主世界" || alex.RawDimension != "minecraft:overworld" {
		t.Fatalf("alex dimension = %q/%q", alex.Dimension, alex.RawDimension)
	}
	if alex.Position == nil || *alex.Position != (mcparse.Position{X: 1, Y: 64, Z: -2.3}) {
		t.Fatalf("alex position = %+v", alex.Position)
	}

	steve := byName["Steve"]
	if steve.Position != nil {
		t.Fatalf("steve position should be absent, got %+v", steve.Position)
	}
	if steve.Dimension != "the_nether" || steve.Status.Health == nil || steve.Status.Health.String() != "18" {
		t.Fatalf("steve = %+v", steve)
	}
	if steve.Status.Level != nil {
		t.Fatalf("steve level should be absent")
	}

	notch := byName["Notch"]
	if notch.Position == nil || notch.Position.X != 100.6 {
		t.Fatalf("notch position = %+v", notch.Position)
	}

	raw, err := json.Marshal(steve)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"Steve","dimension":"the_nether","raw_dimension":"minecraft:the_nether","status":{"health":18,"food":12}}`
	if string(raw) != want {
		t.Fatalf("steve json = %s, want %s", raw, want)
	}
}

func TestPlayerInfo_SkipsMissingAndBrokenPlayers(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{
			"list":                  "There are 4 of a max of 20 players online: Alex, Gone, NoDim, Boom",
			"data get entity Alex":  entity("Pos: [0.0d, 0.0d, 0.0d]", "minecraft:overworld", "Health: 1.5f"),
			"data get entity Gone":  "No entity was found",
			"data get entity NoDim": "NoDim has the following entity data: {Pos: [1.0d, 2.0d, 3.0d], Health: 20.0f}",
		},
		panics: map[string]bool{"data get entity Boom": true},
	}
	svc := NewServerService(exec, &fakeQuerier{}, namer{}, "")

	players, err := svc.PlayerInfo(context.Background())
	if err != nil {
		t.Fatalf("PlayerInfo: %v", err)
	}
	if len(players) != 1 || players[0].Name != "Alex" {
		t.Fatalf("players = %+v, want only Alex", players)
	}
}

func TestPlayerInfo_ZeroPlayers(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"list": "There are 0 of a max of 20 players online: ",
	}}
	svc := NewServerService(exec, &fakeQuerier{}, namer{}, "")

	players, err := svc.PlayerInfo(context.Background())
	if err != nil || players == nil || len(players) != 0 {
		t.Fatalf("players = %v, err = %v", players, err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("unexpected extra commands: %v", exec.calls)
	}
}

func TestPlayerInfo_ListFailure(t *testing.T) {
	exec := &fakeExecutor{errs: map[string]error{"list": context.DeadlineExceeded}}
	svc := NewServerService(exec, &fakeQuerier{}, namer{}, "")

	if _, err := svc.PlayerInfo(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestStatus_CombinesPingAndTime(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"time query daytime":  "The time is 6000",
		"time query gametime": "The time is 1234567",
	}}
	querier := &fakeQuerier{status: &mccontrol.ServerStatus{
		Online:     true,
		Players:    2,
		MaxPlayers: 20,
		Version:    "1.20.4",
		Latency:    12,
		Sample:     []mccontrol.MCOnlinePlayer{{ID: "069a79f4-44e9-4726-a5be-fca90e38aaf5", Name: "Notch"}},
	}}
	svc := NewServerService(exec, querier, namer{}, "")
	start := time.Unix(1_700_000_000, 0)
	svc.startedAt = start
	svc.now = func() time.Time { return start.Add(3661 * time.Second) }

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Online != 2 || st.Version != "1.20.4" || st.Latency != 12 {
		t.Fatalf("status = %+v", st)
	}
	if len(st.Players) != 1 || st.Players[0].AvatarURL != "https://crafatar.com/avatars/069a79f4-44e9-4726-a5be-fca90e38aaf5" {
		t.Fatalf("players = %+v", st.Players)
	}
	if st.WorldTime == nil || *st.WorldTime != 6000 || *st.WorldTimeFormatted != "12:00" {
		t.Fatalf("world time = %v %v", st.WorldTime, st.WorldTimeFormatted)
	}
	if st.GameTime == nil || *st.GameTime != 1234567 {
		t.Fatalf("game time = %v", st.GameTime)
	}
	if st.UptimeSeconds != 3661 || st.UptimeFormatted != "01:01:01" {
		t.Fatalf("uptime = %d %q", st.UptimeSeconds, st.UptimeFormatted)
	}
}

func TestStatus_TimeUnavailableIsNull(t *testing.T) {
	exec := &fakeExecutor{
		responses: map[string]string{"time query gametime": "Unknown command"},
		errs:      map[string]error{"time query daytime": context.Canceled},
	}
	svc := NewServerService(exec, &fakeQuerier{status: &mccontrol.ServerStatus{Online: true}}, namer{}, "")

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	raw, _ := json.Marshal(st)
	for _, field := range []string{`"world_time":null`, `"game_time":null`, `"world_time_formatted":null`, `"players":[]`} {
		if !strings.Contains(string(raw), field) {
			t.Fatalf("status json %s missing %s", raw, field)
		}
	}
}

func TestStatus_PingFailure(t *testing.T) {
	exec := &fakeExecutor{}
	svc := NewServerService(exec, &fakeQuerier{err: errors.New("connection refused")}, namer{}, "")

	if _, err := svc.Status(context.Background()); !errors.Is(err, ErrStatusUnavailable) {
		t.Fatalf("err = %v, want ErrStatusUnavailable", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("rcon should not be queried when ping fails: %v", exec.calls)
	}
}

func TestHealthAndCommand(t *testing.T) {
	exec := &fakeExecutor{connected: true, responses: map[string]string{"say hi": ""}}
	svc := NewServerService(exec, &fakeQuerier{}, namer{}, "https://mc-heads.net/avatar/%s")

	if h := svc.Health(); h.Status != "ok" || !h.RconConnected {
		t.Fatalf("health = %+v", h)
	}
	if got := svc.AvatarURL("abc"); got != "https://mc-heads.net/avatar/abc" {
		t.Fatalf("avatar = %q", got)
	}

	res, err := svc.Command(context.Background(), " /say hi ")
	if err != nil || res.Command != "say hi" {
		t.Fatalf("Command = %+v, %v", res, err)
	}
	if _, err := svc.Command(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty command")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(topic string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func TestStartMonitoring_PublishesSnapshots(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"list": "There are 0 of a max of 20 players online: ",
	}}
	svc := NewServerService(exec, &fakeQuerier{status: &mccontrol.ServerStatus{Online: true}}, namer{}, "")
	pub := &recordingPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartMonitoring(ctx, 10*time.Millisecond, pub)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		topics := pub.seen()
		hasStatus, hasPlayers := false, false
		for _, topic := range topics {
			hasStatus = hasStatus || topic == TopicStatus
			hasPlayers = hasPlayers || topic == TopicPlayers
		}
		if hasStatus && hasPlayers {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("monitor did not publish both topics: %v", pub.seen())
}
