package spur

// Handler is the terminal function of a route. It returns the response to
// send, or nil when it has written to the Ctx writer itself.
type Handler func(*Ctx) *Response

// DeferFunc runs after the handler produced res. A non-nil return value
// replaces res for the remaining defers and for the client.
type DeferFunc func(res *Response, c *Ctx) *Response

// Kind tags an Action.
type Kind uint8

const (
	// KindInit runs a function and ignores its outcome.
	KindInit Kind = iota
	// KindCheck runs a function and stops the chain when it returns a response.
	KindCheck
	// KindSet stores the function result under a property name.
	KindSet
	// KindState stops the chain on a response, otherwise stores the value.
	KindState
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindCheck:
		return "check"
	case KindSet:
		return "set"
	case KindState:
		return "state"
	}
	return "unknown"
}

// Action is one unit of per-request logic attached to an app or a route.
// Build actions with Init, Check, Set and State.
type Action struct {
	kind  Kind
	prop  string
	init  func(*Ctx)
	check func(*Ctx) *Response
	set   func(*Ctx) any
	state func(*Ctx) (any, *Response)
}

// Kind returns the action tag.
func (a Action) Kind() Kind { return a.kind }

// Prop returns the property written by Set and State actions.
func (a Action) Prop() string { return a.prop }

// Init creates an action that always runs and never stops the chain.
func Init(fn func(*Ctx)) Action {
	if fn == nil {
		panic("spur: nil Init function")
	}
	return Action{kind: KindInit, init: fn}
}

// Check creates an action that stops the chain when fn returns a response.
func Check(fn func(*Ctx) *Response) Action {
	if fn == nil {
		panic("spur: nil Check function")
	}
	return Action{kind: KindCheck, check: fn}
}

// Set creates an action storing the result of fn under key. fn is trusted
// to always produce a usable value.
func Set[T any](key Key[T], fn func(*Ctx) T) Action {
	if fn == nil {
		panic("spur: nil Set function")
	}
	return Action{
		kind: KindSet,
		prop: key.name,
		set:  func(c *Ctx) any { return fn(c) },
	}
}

// State creates an action that stops the chain when fn returns a response
// and otherwise stores the value under key.
func State[T any](key Key[T], fn func(*Ctx) (T, *Response)) Action {
	if fn == nil {
		panic("spur: nil State function")
	}
	return Action{
		kind: KindState,
		prop: key.name,
		state: func(c *Ctx) (any, *Response) {
			v, res := fn(c)
			return v, res
		},
	}
}

// Key names a typed request property written by Set or State actions.
type Key[T any] struct {
	name string
}

// NewKey returns a key for the property name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the property name.
func (k Key[T]) Name() string { return k.name }

// Get returns the stored value or the zero value of T.
func (k Key[T]) Get(c *Ctx) T {
	v, _ := k.Lookup(c)
	return v
}

// Lookup returns the stored value and whether it was present with type T.
func (k Key[T]) Lookup(c *Ctx) (T, bool) {
	v, ok := c.Get(k.name).(T)
	return v, ok
}

// Put stores v for the current request.
func (k Key[T]) Put(c *Ctx, v T) {
	c.Set(k.name, v)
}

// Rule is a named validator. Its value ends up in Ctx.State under Name.
type Rule struct {
	Name string
	Fn   func(*Ctx) (any, *Response)
}

// Validate creates a validator rule.
func Validate(name string, fn func(*Ctx) (any, *Response)) Rule {
	return Rule{Name: name, Fn: fn}
}
