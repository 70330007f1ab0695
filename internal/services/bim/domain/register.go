package domain

import (
	"fmt"

	"github.com/louisbranch/bimbridge/internal/bridge"
)

type runnerFactory func(bridge.Options) (bridge.Runner, error)

func factory[P bridge.Validator, R any](def bridge.Definition[P, R]) runnerFactory {
	return func(opts bridge.Options) (bridge.Runner, error) {
		cmd, err := bridge.NewCommand(def, opts)
		if err != nil {
			return nil, err
		}
		return cmd, nil
	}
}

func factories() []runnerFactory {
	return []runnerFactory{
		factory(statusDefinition()),
		factory(elementInfoDefinition()),
		factory(createLevelDefinition()),
		factory(createGridDefinition()),
		factory(createLineElementDefinition()),
		factory(createPointElementDefinition()),
		factory(createSurfaceElementDefinition()),
		factory(createRoomDefinition()),
		factory(filterDefinition()),
		factory(operateDefinition()),
		factory(exportRoomsDefinition()),
	}
}

// Register builds every capability with opts and adds it to router.
func Register(router *bridge.Router, opts bridge.Options) error {
	for _, build := range factories() {
		runner, err := build(opts)
		if err != nil {
			return fmt.Errorf("build command: %w", err)
		}
		if err := router.Register(runner); err != nil {
			return err
		}
	}
	return nil
}

// NewRouter returns a router with every capability registered.
func NewRouter(opts bridge.Options) (*bridge.Router, error) {
	router := bridge.NewRouter()
	if err := Register(router, opts); err != nil {
		return nil, err
	}
	return router, nil
}
