package spur

import (
	"github.com/gomarten/spur/form"
	"github.com/gomarten/spur/query"
)

// QueryState creates an action that parses the query string with s and
// stores the values under key. A failed parse ends the request with
// onFail, or with a 400 when onFail is nil.
func QueryState(key Key[query.Values], s *query.Schema, onFail Handler) Action {
	return State(key, func(c *Ctx) (query.Values, *Response) {
		if v := s.Parse(c.RawQuery()); v != nil {
			return v, nil
		}
		return nil, failed(c, onFail)
	})
}

// FormState creates an action that parses the request body with s and
// stores the values under key. A failed parse ends the request with
// onFail, or with a 400 when onFail is nil.
func FormState(key Key[form.Values], s *form.Schema, onFail Handler) Action {
	return State(key, func(c *Ctx) (form.Values, *Response) {
		if v := s.Parse(c.Request); v != nil {
			return v, nil
		}
		return nil, failed(c, onFail)
	})
}

// QueryRule creates a validator rule exposing the parsed query under name.
func QueryRule(name string, s *query.Schema, onFail Handler) Rule {
	return Validate(name, func(c *Ctx) (any, *Response) {
		if v := s.Parse(c.RawQuery()); v != nil {
			return v, nil
		}
		return nil, failed(c, onFail)
	})
}

func failed(c *Ctx, onFail Handler) *Response {
	if onFail != nil {
		if res := onFail(c); res != nil {
			return res
		}
	}
	return c.BadRequest("invalid request")
}
