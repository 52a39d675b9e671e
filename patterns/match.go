package patterns

import "maps"

// thread is one simultaneously-active automaton state together with the
// characters accumulated so far for each capture group along its path.
type thread struct {
	state int
	caps  map[string][]rune
}

// addThread appends state and its epsilon closure to the active list in
// first-reached order. The total ordering of the list is the submatch
// priority: when several paths accept, the one whose states entered the
// list earliest wins, which follows transition insertion order and is
// reproducible across runs.
func addThread(a *Automaton, threads []thread, seen map[int]bool, state int, caps map[string][]rune) []thread {
	if seen[state] {
		return threads
	}
	seen[state] = true
	threads = append(threads, thread{state: state, caps: caps})
	for _, t := range a.adj[state] {
		if t.Label.IsEpsilon() {
			threads = addThread(a, threads, seen, t.Dest, caps)
		}
	}
	return threads
}

// extendCaps appends r to every named group on the transition, copying the
// capture maps so sibling threads stay independent.
func extendCaps(caps map[string][]rune, tags []string, r rune) map[string][]rune {
	if len(tags) == 0 {
		return caps
	}
	next := maps.Clone(caps)
	if next == nil {
		next = map[string][]rune{}
	}
	for _, tag := range tags {
		prev := next[tag]
		buf := make([]rune, len(prev), len(prev)+1)
		copy(buf, prev)
		next[tag] = append(buf, r)
	}
	return next
}

// stepThreads advances every active thread on r, preserving list order.
// Otherwise transitions are resolved per source state: they fire only when
// no concrete sibling transition matched r.
func stepThreads(a *Automaton, threads []thread, r rune) []thread {
	var next []thread
	seen := map[int]bool{}
	for _, th := range threads {
		matched := false
		for _, t := range a.adj[th.state] {
			if t.Label.IsEpsilon() || t.Label.Kind == Otherwise {
				continue
			}
			if t.Label.Matches(r) {
				matched = true
				next = addThread(a, next, seen, t.Dest, extendCaps(th.caps, t.Tags, r))
			}
		}
		if matched {
			continue
		}
		for _, t := range a.adj[th.state] {
			if t.Label.Kind == Otherwise {
				next = addThread(a, next, seen, t.Dest, extendCaps(th.caps, t.Tags, r))
			}
		}
	}
	return next
}

// Run reports whether the automaton accepts s as a whole string.
func Run(a *Automaton, s string) bool {
	ok, _ := RunSubmatch(a, s)
	return ok
}

// RunSubmatch matches the whole of s, returning a map from capture-group
// name to the characters that group's tagged transitions consumed. When
// several derivations accept, the thread priority ordering picks one
// deterministically. Groups on paths the winning derivation never took are
// absent from the map.
func RunSubmatch(a *Automaton, s string) (bool, map[string]string) {
	threads := addThread(a, nil, map[int]bool{}, a.start, nil)
	for _, r := range s {
		threads = stepThreads(a, threads, r)
		if len(threads) == 0 {
			return false, nil
		}
	}
	for _, th := range threads {
		if a.IsAccept(th.state) {
			out := make(map[string]string, len(th.caps))
			for name, runes := range th.caps {
				out[name] = string(runes)
			}
			return true, out
		}
	}
	return false, nil
}
