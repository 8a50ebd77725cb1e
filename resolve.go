package sinkfield

import (
	"errors"
	"fmt"
)

// Resolve walks record along path and returns the addressed value.
//
// A missing key or an out-of-range index reports found == false with a nil
// error; so does a nil value in the middle of the path. An error is returned
// only when a segment cannot apply to the addressed value (a key on a scalar,
// a key on a sequence, a marker reaching the resolver) or when a dynamic
// segment fails. Dynamic expansion is bounded by MaxPathLen, both in the
// length of the spliced path and in the number of expansions.
func Resolve(record any, path Path, opts ...ResolveOpt) (any, bool, error) {
	var opt ResolveOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	limit := opt.maxPathLen()

	pending := path.Clone()
	cur := record
	splices := 0
	for i := 0; i < len(pending); i++ {
		if len(pending) > limit {
			return nil, false, IssueAt(pending[:i], CodeMaxDepth,
				fmt.Errorf("%w: path grew past %d segments", ErrMaxDepth, limit))
		}
		switch s := pending[i].(type) {
		case Dynamic:
			if splices++; splices > limit {
				return nil, false, IssueAt(pending[:i], CodeMaxDepth,
					fmt.Errorf("%w: more than %d dynamic expansions", ErrMaxDepth, limit))
			}
			next, err := s(cur, pending[:i].Clone())
			if errors.Is(err, ErrNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, IssueAt(pending[:i+1], CodeSourceFn, err)
			}
			spliced := make(Path, 0, len(pending)-1+len(next))
			spliced = append(spliced, pending[:i]...)
			spliced = append(spliced, next...)
			pending = append(spliced, pending[i+1:]...)
			i--
		case Key:
			if cur == nil {
				return nil, false, nil
			}
			v, found, ok := lookupKey(cur, string(s))
			if !ok {
				return nil, false, IssueAt(pending[:i+1], CodePathShape,
					fmt.Errorf("%w: key %q applied to %T", ErrPathShape, string(s), cur))
			}
			if !found {
				return nil, false, nil
			}
			cur = v
		case Index:
			if cur == nil {
				return nil, false, nil
			}
			if _, isMap := mappingKind(cur); isMap {
				// an index never names a mapping entry
				return nil, false, nil
			}
			seq, ok := asSequence(cur)
			if !ok {
				return nil, false, IssueAt(pending[:i+1], CodePathShape,
					fmt.Errorf("%w: index %d applied to %T", ErrPathShape, int(s), cur))
			}
			if int(s) < 0 || int(s) >= len(seq) {
				return nil, false, nil
			}
			cur = seq[s]
		case Marker:
			return nil, false, IssueAt(pending[:i+1], CodePathShape,
				fmt.Errorf("%w: marker %s is not resolvable here", ErrPathShape, s))
		default:
			return nil, false, IssueAt(pending[:i+1], CodePathShape,
				fmt.Errorf("%w: unsupported segment %T", ErrPathShape, s))
		}
	}
	return cur, true, nil
}

// Where returns a dynamic segment selecting the first sequence element that
// has key equal to value. Values are compared by their canonical text, so
// Where("id", "7") matches an element whose id is the integer 7.
func Where(key string, value any) Dynamic {
	want := fmt.Sprint(value)
	return func(current any, _ Path) (Path, error) {
		seq, ok := asSequence(current)
		if !ok {
			return nil, ErrNotFound
		}
		for i, el := range seq {
			v, found, ok := lookupKey(el, key)
			if ok && found && fmt.Sprint(v) == want {
				return Path{Index(i)}, nil
			}
		}
		return nil, ErrNotFound
	}
}

// Last returns a dynamic segment selecting the last element of a sequence.
func Last() Dynamic {
	return func(current any, _ Path) (Path, error) {
		seq, ok := asSequence(current)
		if !ok || len(seq) == 0 {
			return nil, ErrNotFound
		}
		return Path{Index(len(seq) - 1)}, nil
	}
}
