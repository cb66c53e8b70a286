package control

import (
	"github.com/tinunadno/render-engine-family/pkg/math3d"
	"github.com/tinunadno/render-engine-family/pkg/render"
)

// KeyMatcher is satisfied by terminal key events such as
// ultraviolet's KeyPressEvent.
type KeyMatcher interface {
	MatchString(s ...string) bool
}

type binding[T math3d.Float] struct {
	keys []string
	cmd  render.Command[T]
}

// Keymap binds key names to camera commands. Earlier bindings win when
// several match the same event.
type Keymap[T math3d.Float] struct {
	bindings []binding[T]
}

// NewKeymap returns an empty keymap.
func NewKeymap[T math3d.Float]() *Keymap[T] {
	return &Keymap[T]{}
}

// FlyKeymap returns the fly-camera layout: WASD moves in the view plane, Q/E
// move down/up, arrows turn and +/- zoom.
func FlyKeymap[T math3d.Float](moveStep, turnStep T) *Keymap[T] {
	k := NewKeymap[T]()
	k.Bind(render.Move[T]{Delta: math3d.V3(0, 0, moveStep), Local: true}, "w")
	k.Bind(render.Move[T]{Delta: math3d.V3(0, 0, -moveStep), Local: true}, "s")
	k.Bind(render.Move[T]{Delta: math3d.V3(-moveStep, 0, 0), Local: true}, "a")
	k.Bind(render.Move[T]{Delta: math3d.V3(moveStep, 0, 0), Local: true}, "d")
	k.Bind(render.Move[T]{Delta: math3d.V3(0, moveStep, 0), Local: true}, "e")
	k.Bind(render.Move[T]{Delta: math3d.V3(0, -moveStep, 0), Local: true}, "q")
	k.Bind(render.Rotate[T]{Delta: math3d.V3(turnStep, 0, 0)}, "up")
	k.Bind(render.Rotate[T]{Delta: math3d.V3(-turnStep, 0, 0)}, "down")
	k.Bind(render.Rotate[T]{Delta: math3d.V3(0, turnStep, 0)}, "left")
	k.Bind(render.Rotate[T]{Delta: math3d.V3(0, -turnStep, 0)}, "right")
	k.Bind(render.Zoom[T]{Factor: 1.1}, "+", "=")
	k.Bind(render.Zoom[T]{Factor: 1 / 1.1}, "-", "_")
	return k
}

// Bind maps every key in keys to cmd.
func (k *Keymap[T]) Bind(cmd render.Command[T], keys ...string) {
	if cmd == nil || len(keys) == 0 {
		return
	}
	k.bindings = append(k.bindings, binding[T]{keys: keys, cmd: cmd})
}

// Match returns the command bound to the first binding ev matches.
func (k *Keymap[T]) Match(ev KeyMatcher) (render.Command[T], bool) {
	for _, b := range k.bindings {
		if ev.MatchString(b.keys...) {
			return b.cmd, true
		}
	}
	return nil, false
}

// Lookup returns the command bound to key.
func (k *Keymap[T]) Lookup(key string) (render.Command[T], bool) {
	return k.Match(keyName(key))
}

// Keys returns every bound key in binding order.
func (k *Keymap[T]) Keys() []string {
	var keys []string
	for _, b := range k.bindings {
		keys = append(keys, b.keys...)
	}
	return keys
}

type keyName string

func (n keyName) MatchString(s ...string) bool {
	for _, k := range s {
		if string(n) == k {
			return true
		}
	}
	return false
}
