// Package capacitor models the scalar energy reservoir that powers the
// simulated CPU: a capacitance, a maximum voltage, and the joules
// currently stored. All charge/discharge is expressed as these two
// primitive operations so every policy scheme and the driver share one
// clamped, never-negative notion of stored energy (spec §4.5).
package capacitor

import "math"

// Capacitor is a single energy store: stored_energy in joules, bounded by
// 0 and the energy a fully-charged capacitor of this size holds at its
// maximum rated voltage.
type Capacitor struct {
	capacitance float64 // farads
	maxVoltage  float64 // volts
	stored      float64 // joules
}

// New returns a Capacitor at the given capacitance and maximum voltage,
// starting empty.
func New(capacitanceFarads, maxVoltage float64) *Capacitor {
	return &Capacitor{capacitance: capacitanceFarads, maxVoltage: maxVoltage}
}

// maxEnergy is the energy stored at maxVoltage: E = 1/2 * C * V^2.
func (c *Capacitor) maxEnergy() float64 {
	return 0.5 * c.capacitance * c.maxVoltage * c.maxVoltage
}

// StoredEnergy returns the joules currently held.
func (c *Capacitor) StoredEnergy() float64 {
	return c.stored
}

// Capacitance returns the capacitor's size in farads.
func (c *Capacitor) Capacitance() float64 {
	return c.capacitance
}

// MaxVoltage returns the capacitor's rated maximum voltage.
func (c *Capacitor) MaxVoltage() float64 {
	return c.maxVoltage
}

// Resize changes the capacitor's physical sizing, clamping stored energy
// to the new maximum if it would otherwise exceed it. Lets a CLI override
// a policy's built-in capacitance/max-voltage without the Scheme
// interface needing setters of its own — Battery() already hands out the
// live *Capacitor, so this is the one seam a caller needs.
func (c *Capacitor) Resize(capacitanceFarads, maxVoltage float64) {
	c.capacitance = capacitanceFarads
	c.maxVoltage = maxVoltage
	if max := c.maxEnergy(); c.stored > max {
		c.stored = max
	}
}

// Voltage derives the instantaneous voltage from stored energy:
// V = sqrt(2E / C).
func (c *Capacitor) Voltage() float64 {
	if c.capacitance == 0 {
		return 0
	}
	return math.Sqrt(2 * c.stored / c.capacitance)
}

// EnergyAt returns the energy a capacitor of this size holds at voltage v:
// E = 1/2 * C * V^2. Exposed so policies can express thresholds ("the
// energy this capacitor would hold at its wake-up voltage") without
// reaching into private fields.
func (c *Capacitor) EnergyAt(voltage float64) float64 {
	return 0.5 * c.capacitance * voltage * voltage
}

// ConsumeEnergy discharges joules from the reservoir, clamping at zero
// rather than going negative — a request for more energy than is stored
// drains the capacitor completely and reports how much was actually
// available.
func (c *Capacitor) ConsumeEnergy(joules float64) (consumed float64) {
	if joules <= 0 {
		return 0
	}
	if joules > c.stored {
		consumed = c.stored
		c.stored = 0
		return consumed
	}
	c.stored -= joules
	return joules
}

// HarvestEnergy charges the reservoir by joules, clamping at the
// capacitor's maximum energy rather than exceeding it — excess harvested
// energy is reported as overflow and discarded, matching a real capacitor
// that cannot be charged past its rated voltage.
func (c *Capacitor) HarvestEnergy(joules float64) (overflow float64) {
	if joules <= 0 {
		return 0
	}
	max := c.maxEnergy()
	c.stored += joules
	if c.stored > max {
		overflow = c.stored - max
		c.stored = max
	}
	return overflow
}
