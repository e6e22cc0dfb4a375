package convert

import (
	"context"
	"fmt"

	"github.com/blockflow/blockflow/block"
	"github.com/blockflow/blockflow/errors"
	"github.com/blockflow/blockflow/logger"
	"github.com/blockflow/blockflow/observability"
	"github.com/blockflow/blockflow/schema"
	"github.com/blockflow/blockflow/storage"
)

// Resolve materializes a replica of the block at the target coordinate,
// inside the caller's metadata transaction. If the block already has a
// replica there it is returned unchanged at zero cost. Otherwise the
// cheapest conversion path from any existing replica is executed hop by
// hop, registering one replica per hop; a failed hop aborts the whole
// resolution and registers nothing further, so a rolled-back transaction
// leaves no partial chain behind.
func (r *Registry) Resolve(ctx context.Context, tx block.Tx, blk block.Block, target storage.Pair) (block.Replica, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanConvertResolve)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrBlockID, string(blk.ID))
	observability.SetSpanAttribute(ctx, observability.AttrTargetPair, target.String())

	rep, err := r.resolve(ctx, tx, blk, target)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return rep, err
}

func (r *Registry) resolve(ctx context.Context, tx block.Tx, blk block.Block, target storage.Pair) (block.Replica, error) {
	if existing, ok, err := tx.FindReplica(blk.ID, target.Kind, target.Format); err != nil {
		return block.Replica{}, err
	} else if ok {
		return existing, nil
	}

	source, path, err := r.planFrom(tx, blk, target)
	if err != nil {
		return block.Replica{}, err
	}

	sch, err := r.blockSchema(blk)
	if err != nil {
		return block.Replica{}, err
	}

	srcEngine, err := r.engines.Get(source.Storage)
	if err != nil {
		return block.Replica{}, err
	}
	value, err := srcEngine.Read(ctx, source.Locator, source.Format)
	if err != nil {
		return block.Replica{}, err
	}

	r.log.Debug("conversion path planned", logger.Fields(
		logger.FieldBlockID, string(blk.ID),
		logger.FieldHops, len(path),
		logger.FieldCost, PathCost(path),
	))
	observability.SetSpanAttribute(ctx, observability.AttrSourcePair, source.Pair().String())
	observability.SetSpanAttribute(ctx, observability.AttrHops, len(path))
	if rc := observability.RunContextFromContext(ctx); rc != nil {
		rc.Metrics.RecordConversion(ctx, source.Pair().String(), target.String(), len(path))
	}

	replica := source
	for _, hop := range path {
		job := &Job{
			Value:   value,
			From:    hop.From,
			To:      hop.To,
			Schema:  sch,
			Engines: r.engines,
		}
		out, err := hop.Converter.Fn(ctx, job)
		if err != nil {
			return block.Replica{}, errors.Internal(
				fmt.Errorf("converter %s (%s -> %s): %w", hop.Converter.Name, hop.From, hop.To, err))
		}

		eng, err := r.engines.Get(hop.To.Kind)
		if err != nil {
			return block.Replica{}, err
		}
		key := replicaKey(blk.ID, hop.To)
		locator, err := eng.Write(ctx, key, hop.To.Format, out)
		if err != nil {
			return block.Replica{}, err
		}
		replica, err = tx.RegisterReplica(blk.ID, hop.To.Kind, hop.To.Format, locator)
		if err != nil {
			return block.Replica{}, err
		}
		value = out
		if hop.To.Format.Streaming() {
			// The engine drained the stream to persist it; the next hop
			// needs a fresh one over the stored rows.
			value, err = eng.Read(ctx, locator, hop.To.Format)
			if err != nil {
				return block.Replica{}, err
			}
		}
	}
	return replica, nil
}

// planFrom picks the existing replica with the cheapest path to the
// target. Ties fall to the replica coordinate's lexicographic order so
// resolution is deterministic across runs.
func (r *Registry) planFrom(tx block.Tx, blk block.Block, target storage.Pair) (block.Replica, []Hop, error) {
	replicas, err := tx.ListReplicas(blk.ID)
	if err != nil {
		return block.Replica{}, nil, err
	}
	if len(replicas) == 0 {
		return block.Replica{}, nil, errors.InterfaceBinding(string(blk.ID), "block has no replicas to convert from")
	}

	var (
		chosen     block.Replica
		chosenPath []Hop
		chosenCost pathCost
		found      bool
	)
	for _, rep := range replicas {
		path, err := r.FindPath(rep.Pair(), target)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNoConversionPath) {
				continue
			}
			return block.Replica{}, nil, err
		}
		cost := costOf(path)
		if !found || cost.less(chosenCost) ||
			(!chosenCost.less(cost) && rep.Pair().String() < chosen.Pair().String()) {
			chosen, chosenPath, chosenCost, found = rep, path, cost, true
		}
	}
	if !found {
		return block.Replica{}, nil, errors.NoConversionPath(replicaPairs(replicas), target.String())
	}
	return chosen, chosenPath, nil
}

func (r *Registry) blockSchema(blk block.Block) (schema.Schema, error) {
	key := blk.NominalSchema
	if blk.Realized() {
		key = blk.RealizedSchema
	}
	return r.schemas.Get(key)
}

func costOf(path []Hop) pathCost {
	var c pathCost
	for _, hop := range path {
		c = c.plus(hop)
	}
	return c
}

func replicaKey(id block.ID, p storage.Pair) string {
	return fmt.Sprintf("%s-%s-%s", id, p.Kind, p.Format)
}

func replicaPairs(replicas []block.Replica) string {
	s := ""
	for i, rep := range replicas {
		if i > 0 {
			s += ","
		}
		s += rep.Pair().String()
	}
	return s
}
