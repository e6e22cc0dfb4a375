package engine

import (
	"context"
	"fmt"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/observability"
	"github.com/blockflow/blockflow/pipe"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

type produceOpts struct {
	toExhaustion bool
	target       *storage.Pair
}

// ProduceOption adjusts one Produce call.
type ProduceOption func(*produceOpts)

// ToExhaustion controls whether the requested node's repeatable pipe is
// re-invoked until it reports Exhausted. Defaults to true; upstream
// nodes always run to exhaustion.
func ToExhaustion(v bool) ProduceOption {
	return func(o *produceOpts) { o.toExhaustion = v }
}

// TargetStorage additionally materializes the produced block at the
// given (storage, format) coordinate before returning.
func TargetStorage(p storage.Pair) ProduceOption {
	return func(o *produceOpts) { o.target = &p }
}

// Produce executes the node and every transitive upstream dependency
// first, each inside its own metadata transaction, and returns the
// block the requested node produced last — nil when the node produced
// nothing. Upstreams are recomputed on every call; a failure aborts the
// failing node's transaction and propagates without touching blocks
// committed by earlier nodes in the same call.
func (e *Engine) Produce(ctx context.Context, id NodeID, opts ...ProduceOption) (*block.Block, error) {
	o := produceOpts{toExhaustion: true}
	for _, opt := range opts {
		opt(&o)
	}

	target, err := e.graph.resolveRef(id)
	if err != nil {
		return nil, err
	}
	closure, err := e.graph.upstreamClosure(id)
	if err != nil {
		return nil, err
	}

	var final *block.Block
	for _, nid := range closure {
		toExhaustion := true
		if nid == target {
			toExhaustion = o.toExhaustion
		}
		b, err := e.runNode(ctx, nid, toExhaustion)
		if err != nil {
			return nil, err
		}
		if nid == target {
			final = b
		}
	}

	if final != nil && o.target != nil {
		if err := e.materializeAt(ctx, *final, *o.target); err != nil {
			return nil, err
		}
	}
	return final, nil
}

// materializeAt resolves a replica of the block at the requested
// coordinate in its own transaction, after the producing node has
// committed.
func (e *Engine) materializeAt(ctx context.Context, blk block.Block, target storage.Pair) error {
	tx, err := e.meta.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := e.converters.Resolve(ctx, tx, blk, target); err != nil {
		return err
	}
	return tx.Commit()
}

// runNode executes one node inside a fresh transactional scope: bind
// inputs, resolve the interface, then invoke the pipe until it stops
// producing. Commit on success, roll back on any failure.
func (e *Engine) runNode(ctx context.Context, id NodeID, toExhaustion bool) (*block.Block, error) {
	n, err := e.graph.node(id)
	if err != nil {
		return nil, err
	}
	p, err := e.pipes.Get(n.Pipe)
	if err != nil {
		return nil, err
	}

	rc := observability.NewRunContext(string(id), p.Spec.Name, e.metrics)
	ctx, span := rc.StartSpan(ctx)
	ctx = observability.WithRunContext(ctx, rc)
	last, err := e.runNodeTx(ctx, id, n, p, toExhaustion)
	if err != nil {
		rc.End(ctx, span, "error", err)
		e.metrics.RecordError(ctx, string(errors.CodeOf(err)), "engine")
		return nil, err
	}
	rc.End(ctx, span, "ok", nil)
	return last, nil
}

func (e *Engine) runNodeTx(ctx context.Context, id NodeID, n *graphNode, p *pipe.Pipe, toExhaustion bool) (*block.Block, error) {
	tx, err := e.meta.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	st := e.stateFor(id)
	bound := e.bindUpstreams(id, n, p, st)
	resolved, err := pipe.Resolve(p, bound, e.schemas)
	if err != nil {
		return nil, err
	}
	inputs, err := e.materializeInputs(ctx, tx, resolved)
	if err != nil {
		return nil, err
	}

	exec := &pipe.Exec{
		Context: ctx,
		Inputs:  inputs,
		Config:  n.Config,
		State:   st.state,
		Log: e.log.WithFields(logger.Fields(
			logger.FieldNode, string(id),
			logger.FieldPipe, p.Spec.Name,
		)),
	}

	var produced []block.Block
	for {
		out := p.Fn(exec)
		if out.Kind() == pipe.OutcomeFailed {
			return nil, out.Err()
		}
		if out.Kind() == pipe.OutcomeExhausted {
			break
		}

		blk, err := e.materializeOutput(ctx, tx, id, resolved, out.Value())
		if err != nil {
			return nil, err
		}
		produced = append(produced, blk)

		if !p.Spec.Repeatable || !toExhaustion {
			break
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// State updates only after commit; a rolled-back run leaves the
	// node's self-reference and dataset handle untouched.
	for i := range produced {
		st.blocks = append(st.blocks, produced[i].ID)
	}
	if len(produced) > 0 {
		lastBlk := produced[len(produced)-1]
		st.last = &lastBlk
		e.log.Debug("node produced", logger.Fields(
			logger.FieldNode, string(id),
			"blocks", len(produced),
		))
		return &lastBlk, nil
	}
	return nil, nil
}

// bindUpstreams maps each declared slot to a block: self-reference
// slots bind the node's previous output, dataset and block slots bind
// the upstream node's latest snapshot. Unbound slots are left out; the
// resolver decides whether that is an error.
func (e *Engine) bindUpstreams(id NodeID, n *graphNode, p *pipe.Pipe, st *nodeState) map[string]block.Block {
	bound := make(map[string]block.Block)
	autoUsed := n.autoInput == ""

	for _, slot := range p.Spec.Inputs {
		if slot.Kind == pipe.SlotSelf {
			if st.last != nil {
				bound[slot.Name] = *st.last
			}
			continue
		}

		ref, ok := n.Inputs[slot.Name]
		if !ok && !autoUsed {
			// Chain wiring: the predecessor feeds the first declared
			// data slot.
			ref, ok = n.autoInput, true
			autoUsed = true
		}
		if !ok {
			continue
		}

		up, err := e.graph.resolveRef(ref)
		if err != nil {
			continue
		}
		if up == id {
			if st.last != nil {
				bound[slot.Name] = *st.last
			}
			continue
		}
		if upState, found := e.states[up]; found && upState.last != nil {
			bound[slot.Name] = *upState.last
		}
	}
	return bound
}

// materializeInputs converts every bound block into the coordinate its
// slot requests and reads the value, inside the node's transaction.
// Streaming coordinates come back as lazy streams and are pulled by the
// pipe, not here.
func (e *Engine) materializeInputs(ctx context.Context, tx block.Tx, resolved *pipe.Resolved) (map[string]pipe.Input, error) {
	inputs := make(map[string]pipe.Input, len(resolved.Bound))
	for _, slot := range resolved.Pipe.Spec.Inputs {
		blk, ok := resolved.Bound[slot.Name]
		if !ok {
			continue
		}
		pair := slot.Pair
		if pair == (storage.Pair{}) {
			pair = e.defaultPair
		}

		rep, err := e.converters.Resolve(ctx, tx, blk, pair)
		if err != nil {
			return nil, err
		}
		eng, err := e.engines.Get(rep.Storage)
		if err != nil {
			return nil, err
		}
		v, err := eng.Read(ctx, rep.Locator, rep.Format)
		if err != nil {
			return nil, err
		}
		inputs[slot.Name] = pipe.Input{Slot: slot, Block: blk, Value: v}
	}
	return inputs, nil
}

// materializeOutput turns one produced value into a committed-on-success
// block: infer the realized schema, create the block, write the replica,
// and record the realized schema against the nominal one.
func (e *Engine) materializeOutput(ctx context.Context, tx block.Tx, id NodeID, resolved *pipe.Resolved, v any) (block.Block, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBlockWrite)
	defer span.End()

	format, records, v, err := e.inspectOutput(ctx, v)
	if err != nil {
		return block.Block{}, err
	}

	nominalKey, declared := resolved.OutputSchemaKey()
	realizedKey := nominalKey

	if len(records) > 0 {
		inferred, err := schema.Infer(e.nextInferredKey(id), records)
		if err != nil {
			return block.Block{}, err
		}
		realizedKey = inferred.Key
		if declared {
			nominal, err := e.schemas.Get(nominalKey)
			if err != nil {
				return block.Block{}, err
			}
			if schema.EqualStructure(inferred, nominal) {
				realizedKey = nominalKey
			}
		} else {
			nominalKey = inferred.Key
		}
		if realizedKey == inferred.Key {
			if err := e.schemas.Register(inferred); err != nil {
				return block.Block{}, err
			}
		}
	} else if !declared {
		return block.Block{}, errors.InvalidInput("output",
			"cannot infer a schema from empty output and the pipe declares none")
	}

	blk, err := tx.CreateBlock(nominalKey)
	if err != nil {
		return block.Block{}, err
	}

	kind := e.defaultPair.Kind
	eng, err := e.engines.Get(kind)
	if err != nil {
		return block.Block{}, err
	}
	key := fmt.Sprintf("%s-%s-%s", blk.ID, kind, format)
	locator, err := eng.Write(ctx, key, format, v)
	if err != nil {
		return block.Block{}, err
	}
	if _, err := tx.RegisterReplica(blk.ID, kind, format, locator); err != nil {
		return block.Block{}, err
	}
	if err := tx.RecordRealizedSchema(blk.ID, realizedKey); err != nil {
		return block.Block{}, err
	}
	blk.RealizedSchema = realizedKey

	observability.SetSpanAttribute(ctx, observability.AttrBlockID, string(blk.ID))
	observability.SetSpanAttribute(ctx, observability.AttrSchemaKey, realizedKey)
	e.metrics.RecordBlock(ctx, string(id), realizedKey)
	return blk, nil
}

// inspectOutput classifies a produced value and extracts the records
// used for schema inference. Streams are sampled with read-ahead and
// replaced by a replaying stream so single-pass semantics hold.
func (e *Engine) inspectOutput(ctx context.Context, v any) (storage.Format, []storage.Record, any, error) {
	switch out := v.(type) {
	case []storage.Record:
		return storage.FormatRecords, out, out, nil
	case storage.Columnar:
		return storage.FormatColumnar, out.Rows(), out, nil
	case storage.RecordStream:
		sample, replay, err := storage.SampleStream(ctx, out, e.sampleSize)
		if err != nil {
			return "", nil, nil, err
		}
		return storage.FormatStream, sample, replay, nil
	default:
		return "", nil, nil, errors.InvalidInput("output",
			fmt.Sprintf("pipes produce records, columnar tables or streams, got %T", v))
	}
}
