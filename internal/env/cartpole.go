package env

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// CartPoleID is the id of the built-in cart-pole environment.
const CartPoleID = "cartpole"

const (
	gravity        = 9.81
	massCart       = 1.0
	massPole       = 0.1
	length         = 0.5
	totalMass      = massCart + massPole
	poleMassLength = massPole * length
	forceMax       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
)

// PoleState is the physical state of the cart and pole.
type PoleState struct {
	X        float64 `json:"x"`
	XDot     float64 `json:"x_dot"`
	Theta    float64 `json:"theta"`
	ThetaDot float64 `json:"theta_dot"`
}

// CartPole balances a pole on a cart and renders each state into a frame.
type CartPole struct {
	State  PoleState
	Steps  int
	height int
	width  int
	rng    *rand.Rand
	space  *Discrete
}

// NewCartPole creates a cart-pole environment rendering height x width frames.
func NewCartPole(height, width int, rng *rand.Rand) (*CartPole, error) {
	if height < 4 || width < 4 {
		return nil, fmt.Errorf("cartpole frames must be at least 4x4 (got %dx%d)", height, width)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	space, err := NewDiscrete(2, rng)
	if err != nil {
		return nil, err
	}
	return &CartPole{height: height, width: width, rng: rng, space: space}, nil
}

// Reset implements Environment.
func (e *CartPole) Reset(ctx context.Context) (*mat.Dense, error) {
	e.State = PoleState{
		X:        e.rng.Float64()*0.1 - 0.05,
		XDot:     e.rng.Float64()*0.1 - 0.05,
		Theta:    e.rng.Float64()*0.1 - 0.05,
		ThetaDot: e.rng.Float64()*0.1 - 0.05,
	}
	e.Steps = 0
	return e.render(), nil
}

// Step implements Environment. Action 0 pushes left, any other pushes right.
func (e *CartPole) Step(ctx context.Context, action int) (StepResult, error) {
	if action < 0 || action >= e.space.Size() {
		return StepResult{}, fmt.Errorf("invalid cartpole action %d", action)
	}
	force := forceMax
	if action == 0 {
		force = -forceMax
	}

	x := e.State.X
	xDot := e.State.XDot
	theta := e.State.Theta
	thetaDot := e.State.ThetaDot

	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (length * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass
	x += tau * xDot
	xDot += tau * xAcc
	theta += tau * thetaDot
	thetaDot += tau * thetaAcc

	e.State = PoleState{
		X:        x,
		XDot:     xDot,
		Theta:    theta,
		ThetaDot: thetaDot,
	}
	e.Steps++

	done := x < -xThreshold || x > xThreshold || theta < -thetaThreshold || theta > thetaThreshold
	return StepResult{
		Observation: e.render(),
		Reward:      1.0,
		Done:        done,
		Info:        map[string]any{"state": e.State},
	}, nil
}

// ActionSpace implements Environment.
func (e *CartPole) ActionSpace() ActionSpace {
	return e.space
}

// render draws the cart as a block on the two bottom rows and the pole as a
// line of unit intensity rising from the cart centre.
func (e *CartPole) render() *mat.Dense {
	frame := mat.NewDense(e.height, e.width, nil)

	center := e.column(e.State.X)
	cartHalf := e.width / 10
	if cartHalf < 1 {
		cartHalf = 1
	}
	for row := e.height - 2; row < e.height; row++ {
		for col := center - cartHalf; col <= center+cartHalf; col++ {
			if col >= 0 && col < e.width {
				frame.Set(row, col, 1)
			}
		}
	}

	poleLen := float64(e.height) * 0.6
	for i := 0; i < int(poleLen); i++ {
		row := e.height - 3 - int(float64(i)*math.Cos(e.State.Theta))
		col := center + int(math.Round(float64(i)*math.Sin(e.State.Theta)))
		if row >= 0 && row < e.height && col >= 0 && col < e.width {
			frame.Set(row, col, 1)
		}
	}
	return frame
}

func (e *CartPole) column(x float64) int {
	scaled := (x + xThreshold) / (2 * xThreshold)
	col := int(scaled * float64(e.width-1))
	if col < 0 {
		return 0
	}
	if col >= e.width {
		return e.width - 1
	}
	return col
}
