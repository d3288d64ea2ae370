// Package animation poses a skeleton from Bedrock animation clips.
package animation

import (
	"fmt"
	stdmath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/cubekit/internal/engine/model"
	"github.com/Faultbox/cubekit/internal/logger"
	"github.com/Faultbox/cubekit/internal/molang"
	"github.com/Faultbox/cubekit/pkg/formats"
	"github.com/Faultbox/cubekit/pkg/math"
)

// BonePose is the evaluated state of one animated bone.
// A nil field means the clip has no channel for it and the bone keeps its current value.
type BonePose struct {
	Bone     *model.Bone
	Rotation *math.Vec3 // Runtime radians
	Position *math.Vec3 // Parent-relative
}

// Pose is a fully evaluated frame, ready to be written to its skeleton.
type Pose []BonePose

// Apply writes the pose to the bones it was evaluated for.
func (p Pose) Apply() {
	for _, bp := range p {
		if bp.Rotation != nil {
			bp.Bone.Transform.Rotation = *bp.Rotation
		}
		if bp.Position != nil {
			bp.Bone.Transform.Position = *bp.Position
		}
	}
}

// Apply evaluates clip at time t and writes the result to sk.
// Nothing is written if any channel fails, so the previous pose stays intact.
func Apply(sk *model.Skeleton, clip *formats.Clip, t float64, ev molang.Evaluator) error {
	pose, err := Sample(sk, clip, molang.Context{AnimTime: t, LifeTime: t}, ev)
	if err != nil {
		return err
	}
	pose.Apply()
	return nil
}

// Sample evaluates every channel of clip at ctx.AnimTime without touching sk.
// Bones missing from sk are skipped.
func Sample(sk *model.Skeleton, clip *formats.Clip, ctx molang.Context, ev molang.Evaluator) (Pose, error) {
	return sampler{ev: ev, ctx: ctx}.pose(sk, clip)
}

// EvaluateChannel returns the delta of one channel at time t.
func EvaluateChannel(ch *formats.Channel, t float64, ev molang.Evaluator) (math.Vec3, error) {
	return sampler{ev: ev, ctx: molang.Context{AnimTime: t, LifeTime: t}}.channel(ch)
}

type sampler struct {
	ev  molang.Evaluator
	ctx molang.Context
	// hold keeps the last key once AnimTime passes the channel period instead of wrapping.
	hold bool
}

func (s sampler) pose(sk *model.Skeleton, clip *formats.Clip) (Pose, error) {
	pose := make(Pose, 0, len(clip.Bones))
	for _, name := range clip.BoneNames() {
		bone, ok := sk.Lookup(name)
		if !ok {
			logger.Debug("skipping unknown bone",
				zap.String("clip", clip.Name),
				zap.String("bone", name))
			continue
		}
		bc := clip.Bones[name]
		rest := sk.Rest(bone)
		bp := BonePose{Bone: bone}

		if bc.Rotation != nil {
			delta, err := s.channel(bc.Rotation)
			if err != nil {
				return nil, fmt.Errorf("%s/%s rotation: %w", clip.Name, name, err)
			}
			rot := model.RuntimeRotation(rest.Rotation.Add(delta))
			bp.Rotation = &rot
		}
		if bc.Position != nil {
			delta, err := s.channel(bc.Position)
			if err != nil {
				return nil, fmt.Errorf("%s/%s position: %w", clip.Name, name, err)
			}
			pos := rest.Position.Add(delta)
			bp.Position = &pos
		}
		pose = append(pose, bp)
	}
	return pose, nil
}

func (s sampler) channel(ch *formats.Channel) (math.Vec3, error) {
	if !ch.IsKeyed() {
		return s.triple(*ch.Constant)
	}
	keys := ch.Keyframes
	if len(keys) == 0 {
		return math.Vec3{}, fmt.Errorf("%w: no keyframes", formats.ErrMalformedChannel)
	}

	period := ch.Period()
	t := s.ctx.AnimTime
	var phase float64
	switch {
	case period <= 0:
		return s.triple(keys[0].Post)
	case s.hold && t >= period:
		phase = period
	default:
		phase = math.Mod(t, period)
	}

	// Find surrounding keyframes
	var from, to int
	for i := range keys {
		if keys[i].Time > phase {
			to = i
			break
		}
		from = i
		to = i
	}

	// Before the first key or at/after the last one
	if from == to {
		k := keys[from]
		if phase < k.Time {
			return s.triple(k.Pre)
		}
		return s.triple(k.Post)
	}

	k0, k1 := keys[from], keys[to]
	a, err := s.triple(k0.Post)
	if err != nil {
		return math.Vec3{}, err
	}
	b, err := s.triple(k1.Pre)
	if err != nil {
		return math.Vec3{}, err
	}

	span := k1.Time - k0.Time
	if span <= 0 {
		return math.Vec3{}, fmt.Errorf("%w: keys at %gs and %gs", formats.ErrDegenerateInterval, k0.Time, k1.Time)
	}
	frac := float32(stdmath.Max(0, stdmath.Min(1, (phase-k0.Time)/span)))
	return a.Lerp(b, frac), nil
}

func (s sampler) triple(tr formats.Triple) (math.Vec3, error) {
	var out [3]float32
	for i, v := range tr {
		n, err := s.value(v)
		if err != nil {
			return math.Vec3{}, err
		}
		out[i] = float32(n)
	}
	return math.FromArray(out), nil
}

func (s sampler) value(v formats.Value) (float64, error) {
	if !v.IsExpr() {
		return v.Num, nil
	}
	if s.ev == nil {
		return 0, fmt.Errorf("%w: no evaluator for %q", molang.ErrExpression, v.Expr)
	}
	return s.ev.Evaluate(v.Expr, s.ctx)
}
