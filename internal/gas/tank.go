package gas

// Tank is the shared receiver. Its volume is fixed; only the stored mass
// changes, through valve exchange with cylinder chambers.
type Tank struct {
	Column
}

// NewTankGas builds the initial receiver state.
func NewTankGas(pressure, volume, temperature, r float64) (Tank, error) {
	c, err := newColumn("tank", pressure, volume, temperature, r)
	if err != nil {
		return Tank{}, err
	}
	return Tank{Column: c}, nil
}

// WithMass returns the tank holding mass m.
func (t Tank) WithMass(m float64) (Tank, error) {
	c, err := t.Column.WithMass(m)
	if err != nil {
		return t, err
	}
	return Tank{Column: c}, nil
}
