package jsengine

import (
	"fmt"

	"github.com/dop251/goja"
)

// dslPrelude defines the matcher DSL. Matchers wrap a serialized predicate,
// elements add atIndex, and every expect(...).toXxx() call appends a
// serialized expectation to __invocations.
const dslPrelude = `
(function (global) {
  function withNot(p) {
    var mods = (p.modifiers || []).filter(function (m) { return m !== 'not'; });
    if (!(p.modifiers || []).includes('not')) mods.push('not');
    var out = Object.assign({}, p);
    if (mods.length) { out.modifiers = mods; } else { delete out.modifiers; }
    return out;
  }

  function Matcher(predicate) { this.predicate = predicate; }
  Object.defineProperty(Matcher.prototype, 'not', {
    get: function () { return new Matcher(withNot(this.predicate)); }
  });

  function toPredicate(m, what) {
    if (!(m instanceof Matcher)) throw new TypeError(what + ' expects a matcher built with by.*');
    return m.predicate;
  }

  function conjoin(left, right) {
    if (left.type === 'and' && !left.modifiers) {
      return new Matcher({ type: 'and', predicates: left.predicates.concat([right]) });
    }
    return new Matcher({ type: 'and', predicates: [left, right] });
  }

  Matcher.prototype.and = function (other) {
    return conjoin(this.predicate, toPredicate(other, 'and'));
  };
  Matcher.prototype.withAncestor = function (other) {
    return conjoin(this.predicate, { type: 'ancestor', predicate: toPredicate(other, 'withAncestor') });
  };
  Matcher.prototype.withDescendant = function (other) {
    return conjoin(this.predicate, { type: 'descendant', predicate: toPredicate(other, 'withDescendant') });
  };

  function leaf(type) {
    return function (value) {
      if (value === undefined || value === null) throw new TypeError('by.' + type + ' requires a value');
      return new Matcher({ type: type, value: value });
    };
  }

  global.by = {
    id: leaf('id'),
    label: leaf('label'),
    text: leaf('text'),
    value: leaf('value'),
    type: leaf('type')
  };

  function Element(predicate, index) {
    this.predicate = predicate;
    this.index = index;
  }
  Element.prototype.atIndex = function (i) {
    if (typeof i !== 'number' || i < 0 || Math.floor(i) !== i) {
      throw new TypeError('atIndex expects a non-negative integer');
    }
    return new Element(this.predicate, i);
  };

  global.element = function (matcher) {
    return new Element(toPredicate(matcher, 'element'), undefined);
  };

  function Invocation(payload) { this.payload = payload; }
  Invocation.prototype.withTimeout = function (ms) {
    if (typeof ms !== 'number' || ms < 0) throw new TypeError('withTimeout expects milliseconds');
    this.payload.timeout = ms;
    return this;
  };

  function Expect(el, negated) {
    this.el = el;
    this.negated = negated;
  }
  Object.defineProperty(Expect.prototype, 'not', {
    get: function () { return new Expect(this.el, !this.negated); }
  });

  Expect.prototype.record = function (kind, params) {
    var payload = { expectation: kind, predicate: this.el.predicate };
    if (params.length) payload.params = params;
    if (this.el.index !== undefined) payload.atIndex = this.el.index;
    if (this.negated) payload.modifiers = ['not'];
    global.__invocations.push(payload);
    return new Invocation(payload);
  };

  Expect.prototype.toBeVisible = function () { return this.record('toBeVisible', []); };
  Expect.prototype.toExist = function () { return this.record('toExist', []); };
  ['Text', 'Label', 'Id', 'Value', 'Placeholder'].forEach(function (name) {
    Expect.prototype['toHave' + name] = function (v) { return this.record('toHave' + name, [v]); };
  });
  Expect.prototype.toHaveSliderPosition = function (position, tolerance) {
    var params = [position];
    if (tolerance !== undefined) params.push(tolerance);
    return this.record('toHaveSliderPosition', params);
  };

  global.expect = function (target) {
    if (target instanceof Matcher) target = new Element(target.predicate, undefined);
    if (!(target instanceof Element)) throw new TypeError('expect expects element(...)');
    return new Expect(target, false);
  };

  global.__invocations = [];
})(this);
`

// Invocations runs script and returns the serialized expectations it
// declared, in declaration order. Each call starts with an empty list.
func (e *Engine) Invocations(script string) ([]map[string]interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.runtime.RunString("__invocations = [];"); err != nil {
		return nil, fmt.Errorf("reset invocations: %w", err)
	}
	if _, err := e.runtime.RunString(script); err != nil {
		return nil, fmt.Errorf("JS runtime error: %w", err)
	}

	exported, ok := e.runtime.Get("__invocations").Export().([]interface{})
	if !ok {
		return nil, fmt.Errorf("invocations list was replaced by the script")
	}
	out := make([]map[string]interface{}, 0, len(exported))
	for i, item := range exported {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invocation %d is not an object", i+1)
		}
		out = append(out, m)
	}
	return out, nil
}

// Matcher evaluates a matcher expression such as by.id("x").and(by.type("UIButton"))
// and returns its serialized predicate.
func (e *Engine) Matcher(expr string) (map[string]interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.runtime.RunString("(" + expr + ")")
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, fmt.Errorf("expression is not a matcher")
	}
	p, ok := obj.Get("predicate").Export().(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expression is not a matcher")
	}
	return p, nil
}
