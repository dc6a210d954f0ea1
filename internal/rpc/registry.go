// Package rpc holds the procedure registry: named queries and mutations
// with typed, validated inputs and a single error mapping boundary.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Type tells whether a procedure reads (query) or may write (mutation).
type Type string

const (
	TypeQuery    Type = "query"
	TypeMutation Type = "mutation"
)

// Empty is the input of procedures that take no parameters.
type Empty struct{}

// Success is the minimal mutation result.
type Success struct {
	Success bool `json:"success"`
}

// Done is the result of a mutation that has nothing else to return.
func Done() Success { return Success{Success: true} }

type handlerFunc func(ctx context.Context, raw json.RawMessage) (any, error)

type Procedure struct {
	Name string
	Type Type
	call handlerFunc
}

type Registry struct {
	procedures map[string]*Procedure
	validate   *validator.Validate
}

func NewRegistry() *Registry {
	return &Registry{
		procedures: make(map[string]*Procedure),
		validate:   NewValidator(),
	}
}

// Query registers a side-effect-free procedure.
func Query[In, Out any](r *Registry, name string, fn func(ctx context.Context, in In) (Out, error)) {
	register(r, name, TypeQuery, fn)
}

// Mutation registers a procedure that may write.
func Mutation[In, Out any](r *Registry, name string, fn func(ctx context.Context, in In) (Out, error)) {
	register(r, name, TypeMutation, fn)
}

func register[In, Out any](r *Registry, name string, typ Type, fn func(ctx context.Context, in In) (Out, error)) {
	if _, exists := r.procedures[name]; exists {
		panic(fmt.Sprintf("rpc: procedure %q registered twice", name))
	}
	r.procedures[name] = &Procedure{
		Name: name,
		Type: typ,
		call: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var in In
			if err := decodeInput(raw, &in); err != nil {
				return nil, err
			}
			if err := validate(r.validate, in); err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// Lookup returns the procedure registered under name.
func (r *Registry) Lookup(name string) (*Procedure, bool) {
	p, ok := r.procedures[name]
	return p, ok
}

// Names lists every registered procedure in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Call decodes and validates raw, runs the named procedure and maps any
// failure to an *Error. Validation happens before the procedure body, so
// invalid input never reaches the store.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	p, ok := r.procedures[name]
	if !ok {
		return nil, ProcedureNotFound(name)
	}

	start := time.Now()
	out, err := p.call(ctx, raw)
	if err == nil {
		log.Debug().Str("procedure", name).Dur("took", time.Since(start)).Msg("rpc: procedure completed")
		return out, nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) && rpcErr.Kind != KindDataAccess {
		log.Warn().Str("procedure", name).Str("kind", string(rpcErr.Kind)).Str("reason", rpcErr.Error()).Msg("rpc: procedure rejected")
		return nil, rpcErr
	}

	log.Error().Err(err).Str("procedure", name).Dur("took", time.Since(start)).Msg("rpc: procedure failed")
	return nil, dataAccess(err)
}

func decodeInput(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		trimmed = []byte("{}")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return InvalidField(typeErr.Field, "must be of type "+typeErr.Type.String())
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return InvalidField("input", "malformed JSON")
		}
		return InvalidField("input", err.Error())
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return InvalidField("input", "unexpected trailing data")
	}
	return nil
}
