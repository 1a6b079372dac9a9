package spur

// Compile turns a route into a single handler. Actions run in chain order
// (outermost app first, declaration order inside an app), then the
// validator, then the handler, then the defers. A route without actions,
// validator or defers compiles to its own handler.
//
// Each step is a closure specialised for its action kind, built once here;
// serving a request performs no lookup on the kind. Defers are attached to
// the handler call, so a chain that stops early skips them.
func Compile(r *Route) Handler {
	if !hasActions(r.actions) && len(r.validator) == 0 && !hasDefers(r.defers) {
		return r.handler
	}

	next := r.handler
	if hasDefers(r.defers) {
		next = withDefers(next, flattenDefers(r.defers))
	}
	if len(r.validator) > 0 {
		next = withValidator(r.validator, next)
	}
	for i := len(r.actions) - 1; i >= 0; i-- {
		seg := r.actions[i]
		for j := len(seg) - 1; j >= 0; j-- {
			next = wrap(seg[j], next)
		}
	}
	return next
}

func hasActions(segs [][]Action) bool {
	for _, s := range segs {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

func hasDefers(segs [][]DeferFunc) bool {
	for _, s := range segs {
		if len(s) > 0 {
			return true
		}
	}
	return false
}

func wrap(a Action, next Handler) Handler {
	switch a.kind {
	case KindInit:
		fn := a.init
		return func(c *Ctx) *Response {
			fn(c)
			return next(c)
		}
	case KindCheck:
		fn := a.check
		return func(c *Ctx) *Response {
			if res := fn(c); res != nil {
				return res
			}
			return next(c)
		}
	case KindSet:
		fn, prop := a.set, a.prop
		return func(c *Ctx) *Response {
			c.Set(prop, fn(c))
			return next(c)
		}
	case KindState:
		fn, prop := a.state, a.prop
		return func(c *Ctx) *Response {
			v, res := fn(c)
			if res != nil {
				return res
			}
			c.Set(prop, v)
			return next(c)
		}
	}
	panic("spur: unknown action kind " + a.kind.String())
}

func withValidator(rules []Rule, next Handler) Handler {
	rules = append([]Rule(nil), rules...)
	return func(c *Ctx) *Response {
		state := make(map[string]any, len(rules))
		for _, rule := range rules {
			v, res := rule.Fn(c)
			if res != nil {
				return res
			}
			state[rule.Name] = v
		}
		c.state = state
		return next(c)
	}
}

// flattenDefers orders defers for execution: segments innermost first,
// each segment last-declared first.
func flattenDefers(segs [][]DeferFunc) []DeferFunc {
	var out []DeferFunc
	for _, seg := range segs {
		for i := len(seg) - 1; i >= 0; i-- {
			out = append(out, seg[i])
		}
	}
	return out
}

func withDefers(h Handler, defers []DeferFunc) Handler {
	after := func(res *Response, _ *Ctx) *Response { return res }
	for i := len(defers) - 1; i >= 0; i-- {
		fn, rest := defers[i], after
		after = func(res *Response, c *Ctx) *Response {
			c.res = res
			if out := fn(res, c); out != nil {
				res = out
			}
			return rest(res, c)
		}
	}
	return func(c *Ctx) *Response {
		res := after(h(c), c)
		c.res = res
		return res
	}
}
