package extraction

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Factory builds an executor instance for its form type. The registry
// holds factories rather than instances so executors stay free to decide
// whether construction is cheap enough to repeat per call.
type Factory func() (Executor, error)

type ErrDuplicateCode struct {
	error
}

func NewErrDuplicateCode(code string) *ErrDuplicateCode {
	return &ErrDuplicateCode{fmt.Errorf("form code %q is already registered", code)}
}

type ErrUnknownCode struct {
	error
}

func NewErrUnknownCode(code string) *ErrUnknownCode {
	return &ErrUnknownCode{fmt.Errorf("form code %q is not registered", code)}
}

type ErrInvalidExecutor struct {
	error
}

func NewErrInvalidExecutor(code string) *ErrInvalidExecutor {
	return &ErrInvalidExecutor{fmt.Errorf("form code %q registered without an executor factory", code)}
}

// Registry maps form-type codes to executor factories. Registration is
// expected once at process start, but mutations are serialized against
// concurrent lookups regardless.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *zap.SugaredLogger
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    zap.S().Named("registry"),
	}
}

// Register inserts a factory for the given form code. The first
// registration wins; a second attempt fails without touching it.
func (r *Registry) Register(code string, factory Factory) error {
	if factory == nil {
		return NewErrInvalidExecutor(code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[code]; ok {
		r.logger.Warnw("form code already registered", "form_code", code)
		return NewErrDuplicateCode(code)
	}

	r.factories[code] = factory
	r.logger.Infow("form executor registered", "form_code", code)
	return nil
}

// GetExecutor resolves a form code to a runnable executor instance.
func (r *Registry) GetExecutor(code string) (Executor, error) {
	r.mu.RLock()
	factory, ok := r.factories[code]
	r.mu.RUnlock()

	if !ok {
		return nil, NewErrUnknownCode(code)
	}
	return factory()
}

// IsRegistered reports whether a form code has an executor.
func (r *Registry) IsRegistered(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[code]
	return ok
}

// Codes returns the registered form codes in stable order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.factories))
	for code := range r.factories {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Unregister removes a form code from the registry.
func (r *Registry) Unregister(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[code]; !ok {
		return NewErrUnknownCode(code)
	}
	delete(r.factories, code)
	r.logger.Infow("form executor unregistered", "form_code", code)
	return nil
}
