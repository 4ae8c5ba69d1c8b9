package thermostat

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// Process runs one control tick: publish measured temperatures, apply
// the safety interlocks, then the mode-specific hysteresis logic.
// Every decision leaves as a queued state message.
//
// A configuration failure marks the driver disconnected and returns
// ErrInvalidState; the supervisor converts that into an alert.
func (t *Driver) Process(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hvacMode == "" || t.presetMode == "" {
		t.setActorState(false, false)
		t.connected = false
		return fmt.Errorf("%w: thermostat mode is not configured", ErrInvalidState)
	}

	target, ok := t.targetTemp[t.presetMode]
	if !ok {
		t.setActorState(false, false)
		t.connected = false
		return fmt.Errorf("%w: target temperature is not configured", ErrInvalidState)
	}

	targetLow := target - t.layout.lowTolerance
	targetHigh := target + t.layout.highTolerance
	if targetLow > targetHigh {
		t.setActorState(false, false)
		t.connected = false
		return fmt.Errorf("%w: target temperature boundaries are wrongly configured", ErrInvalidState)
	}

	measured := measuredValues(t.actualTemp)
	t.storeChannelState(t.layout.thermostat.ID, t.layout.actualTemp.ID, mean(measured))

	if t.layout.hasFloorSensors() {
		measuredFloor := measuredValues(t.actualFloorTemp)
		t.storeChannelState(t.layout.thermostat.ID, t.layout.actualFloorTemp.ID, mean(measuredFloor))
	}

	if t.isOpeningOpen() {
		t.setActorState(false, false)
		return nil
	}

	if t.hvacMode == HvacOff {
		t.setActorState(false, false)
		return nil
	}

	if t.isFloorOverheating() {
		t.setActorState(false, t.isCooling())
		return nil
	}

	// Without a single usable room reading there is nothing to decide
	// on; the null publication above already reflects that upstream.
	if len(measured) == 0 {
		return nil
	}

	minActual := measured[0]
	maxActual := measured[0]
	for _, v := range measured[1:] {
		minActual = math.Min(minActual, v)
		maxActual = math.Max(maxActual, v)
	}

	switch t.hvacMode {
	case HvacHeat:
		if !t.layout.hasHeaters() {
			t.setActorState(false, false)
			t.connected = false
			return fmt.Errorf("%w: no heater actor is configured", ErrInvalidState)
		}
		if maxActual >= targetHigh {
			t.setActorState(false, false)
		} else if minActual <= targetLow {
			t.setActorState(true, false)
		}

	case HvacCool:
		if !t.layout.hasCoolers() {
			t.setActorState(false, false)
			t.connected = false
			return fmt.Errorf("%w: no cooler actor is configured", ErrInvalidState)
		}
		if maxActual >= targetHigh {
			t.setActorState(false, true)
		} else if minActual <= targetLow {
			t.setActorState(false, false)
		}

	case HvacAuto:
		heating, cooling := t.layout.thresholds(t.presetMode)
		if heating == nil || cooling == nil ||
			*heating >= *cooling || *heating > target || *cooling < target {
			t.connected = false
			return fmt.Errorf("%w: heating and cooling threshold temperatures are wrongly configured", ErrInvalidState)
		}

		switch {
		case minActual <= *heating:
			t.setActorState(true, false)
		case maxActual >= *cooling:
			t.setActorState(false, true)
		case t.isHeating() && !t.isCooling() && maxActual >= targetHigh:
			t.setActorState(false, false)
		case !t.isHeating() && t.isCooling() && minActual <= targetLow:
			t.setActorState(false, false)
		case t.isHeating() && t.isCooling():
			// Inconsistent actor state, fail safe.
			t.setActorState(false, false)
		}
	}

	return nil
}

// setActorState applies an intended heater/cooler state. The final
// state is computed up front: missing actor categories clamp to false,
// and an overheating floor vetoes heaters before anything is written.
// Caller holds the mutex.
func (t *Driver) setActorState(heaters, coolers bool) {
	if !t.layout.hasHeaters() {
		heaters = false
	}
	if !t.layout.hasCoolers() {
		coolers = false
	}

	if heaters && t.isFloorOverheating() {
		heaters = false
		t.logger.Warn("floor is overheating, keeping heater actors off",
			"device", t.device.Identifier)
	}

	changed := false
	for _, p := range t.layout.heaters {
		if t.applyActor(p.ID, t.layout.actors.ID, t.heaters, heaters) {
			changed = true
		}
	}
	for _, p := range t.layout.coolers {
		if t.applyActor(p.ID, t.layout.actors.ID, t.coolers, coolers) {
			changed = true
		}
	}

	state := StateInactive
	switch {
	case heaters && !coolers:
		state = StateHeating
	case !heaters && coolers:
		state = StateCooling
	case !heaters && !coolers:
		state = StateOff
	}

	if changed || t.lastHvacState == nil || *t.lastHvacState != state {
		if t.layout.hvacState != nil {
			t.storeChannelState(t.layout.thermostat.ID, t.layout.hvacState.ID, string(state))
		}
		t.lastHvacState = &state
	}
}

// applyActor enqueues a state message for one actor unless its cached
// value already matches the intended state. Reports whether a message
// was enqueued.
func (t *Driver) applyActor(propertyID, channelID uuid.UUID, cache map[uuid.UUID]*bool, state bool) bool {
	if current := cache[propertyID]; current != nil && *current == state {
		return false
	}
	t.storeChannelState(channelID, propertyID, state)
	return true
}

func (t *Driver) isHeating() bool {
	return anyTrue(t.heaters)
}

func (t *Driver) isCooling() bool {
	return anyTrue(t.coolers)
}

func (t *Driver) isOpeningOpen() bool {
	return anyTrue(t.openingsState)
}

func (t *Driver) isFloorOverheating() bool {
	if !t.layout.hasFloorSensors() {
		return false
	}
	measured := measuredValues(t.actualFloorTemp)
	if len(measured) == 0 {
		return false
	}
	maxFloor := measured[0]
	for _, v := range measured[1:] {
		maxFloor = math.Max(maxFloor, v)
	}
	return maxFloor >= t.layout.maxFloorTemperature
}

func anyTrue(cache map[uuid.UUID]*bool) bool {
	for _, v := range cache {
		if v != nil && *v {
			return true
		}
	}
	return false
}

func measuredValues(cache map[uuid.UUID]*float64) []float64 {
	values := make([]float64, 0, len(cache))
	for _, v := range cache {
		if v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// mean returns the average of the readings rounded to the publication
// precision, nil when there are none.
func mean(values []float64) any {
	if len(values) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return math.Round(avg/Precision) * Precision
}
