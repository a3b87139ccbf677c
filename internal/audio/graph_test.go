package audio

import (
	"errors"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

type fakeBackend struct {
	nodes      map[Node]bool
	edges      map[Edge]int
	applied    int
	lastParams models.EffectParams
	lastEnv    models.Environment
	torn       int
	failCreate error
	failOn     *Edge
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nodes: map[Node]bool{}, edges: map[Edge]int{}}
}

func (b *fakeBackend) CreateNode(n Node) error {
	if b.failCreate != nil {
		return b.failCreate
	}
	b.nodes[n] = true
	return nil
}

func (b *fakeBackend) Connect(from, to Node) error {
	if b.failOn != nil && *b.failOn == (Edge{from, to}) {
		return errors.New("connect refused")
	}
	b.edges[Edge{from, to}]++
	return nil
}

func (b *fakeBackend) Disconnect(from, to Node) error {
	b.edges[Edge{from, to}]--
	if b.edges[Edge{from, to}] == 0 {
		delete(b.edges, Edge{from, to})
	}
	return nil
}

func (b *fakeBackend) ApplyEffects(p models.EffectParams, env models.Environment) error {
	b.applied++
	b.lastParams, b.lastEnv = p, env
	return nil
}

func (b *fakeBackend) Teardown() {
	b.torn++
	b.nodes = map[Node]bool{}
	b.edges = map[Edge]int{}
}

func (b *fakeBackend) duplicates() bool {
	for _, n := range b.edges {
		if n > 1 {
			return true
		}
	}
	return false
}

func TestGraph(t *testing.T) {
	t.Run("Lazy And Idempotent Build", func(t *testing.T) {
		b := newFakeBackend()
		g := NewGraph(b, nil)

		if g.Built() || g.Connections() != 0 {
			t.Fatal("graph should start unbuilt")
		}

		g.Build()
		g.Build()

		if !g.Built() {
			t.Fatal("graph should be built")
		}
		if g.Connections() != 2 {
			t.Errorf("expected gain->destination and source->gain, got %d edges", g.Connections())
		}
		if !g.Connected(NodeSource, NodeGain) || !g.Connected(NodeGain, NodeDestination) {
			t.Error("expected dry topology")
		}
		if len(b.edges) != 2 || b.duplicates() {
			t.Errorf("backend edges out of sync: %v", b.edges)
		}
	})

	t.Run("Environment Switching Never Duplicates Edges", func(t *testing.T) {
		b := newFakeBackend()
		g := NewGraph(b, nil)
		g.Build()

		sequence := []models.Environment{
			models.EnvCathedral, models.EnvTemple, models.EnvNone, models.EnvSmallRoom, models.EnvSmallRoom, models.EnvNone,
		}
		for _, env := range sequence {
			g.SetEnvironment(env)

			want := 2
			if env.Wet() {
				want = 4
			}
			if g.Connections() != want {
				t.Errorf("%s: expected %d edges, got %d", env, want, g.Connections())
			}
			if len(b.edges) != want || b.duplicates() {
				t.Errorf("%s: backend edges out of sync: %v", env, b.edges)
			}
			if b.lastEnv != env {
				t.Errorf("%s: backend not told about environment", env)
			}
		}
	})

	t.Run("Environment Before Build Is Applied On Build", func(t *testing.T) {
		b := newFakeBackend()
		g := NewGraph(b, nil)

		g.SetEnvironment(models.EnvCathedral)
		if len(b.edges) != 0 {
			t.Fatal("unbuilt graph must not touch the backend")
		}

		g.Build()
		if !g.Connected(NodeSource, NodeConvolver) || !g.Connected(NodeConvolver, NodeGain) || !g.Connected(NodeSource, NodeGain) {
			t.Errorf("expected wet and dry paths, got %v", b.edges)
		}
	})

	t.Run("Effects Pushed When Built", func(t *testing.T) {
		b := newFakeBackend()
		g := NewGraph(b, nil)

		g.SetEffects(models.EffectParams{DelayMix: 2})
		if b.applied != 0 {
			t.Error("effects pushed before build")
		}

		g.Build()
		if b.lastParams.DelayMix != 1 {
			t.Errorf("expected clamped params on build, got %+v", b.lastParams)
		}

		g.SetEffects(models.EffectParams{Distortion: 0.3})
		if b.lastParams.Distortion != 0.3 {
			t.Errorf("expected pushed params, got %+v", b.lastParams)
		}
	})

	t.Run("Construction Failure Degrades", func(t *testing.T) {
		b := newFakeBackend()
		b.failCreate = errors.New("no audio context")
		g := NewGraph(b, nil)

		g.Build()

		if g.Built() || !g.Degraded() {
			t.Fatal("expected degraded graph")
		}
		if !errors.Is(g.Err(), shared.ErrEffectsUnavailable) {
			t.Errorf("expected ErrEffectsUnavailable, got %v", g.Err())
		}
		if b.torn != 1 {
			t.Errorf("expected backend teardown, got %d", b.torn)
		}

		g.SetEnvironment(models.EnvTemple)
		g.Build()
		if g.Connections() != 0 {
			t.Error("degraded graph must stay without edges")
		}
	})

	t.Run("Rewire Failure Degrades", func(t *testing.T) {
		b := newFakeBackend()
		b.failOn = &Edge{NodeConvolver, NodeGain}
		g := NewGraph(b, nil)
		g.Build()

		g.SetEnvironment(models.EnvCathedral)

		if !g.Degraded() || g.Connections() != 0 {
			t.Errorf("expected degraded graph without edges, got %d", g.Connections())
		}
	})

	t.Run("Close Tears Down", func(t *testing.T) {
		b := newFakeBackend()
		g := NewGraph(b, nil)
		g.Build()
		g.Close()

		if g.Built() || g.Connections() != 0 || b.torn != 1 {
			t.Errorf("expected torn down graph, built=%v edges=%d torn=%d", g.Built(), g.Connections(), b.torn)
		}

		g.Build()
		if !g.Built() {
			t.Error("graph should build again after close")
		}
	})
}
