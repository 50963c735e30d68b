package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/flowir/internal/ir"
)

func TestExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"if order.total > 100", "Check whether order.total is greater than 100."},
		{"if (x >= 0 && y != 3)", "Check whether x is at least 0 and y does not equal 3."},
		{"if a == b", "Check whether a equals b."},
		{"if !done || p->next <= limit", "Check whether not done or p.next is at most limit."},
		{"elif retries < 3", "Otherwise, check whether retries is less than 3."},
		{"else", "Handle the alternative branch."},
		{"return x", "Return x."},
		{"iffy()", "Call iffy."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expression(tt.input))
		})
	}
}

func TestCondition(t *testing.T) {
	assert.Equal(t, "the condition holds", Condition("   "))
	assert.Equal(t, "the condition holds", Condition("()"))
	assert.Equal(t, "(a) is less than (b)", Condition("(a) < (b)"))
	assert.Equal(t, "flags shifted left by 2 equals mask", Condition("flags << 2 == mask"))
}

func TestLoop(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"for item in order.items", "Repeat for each item in order items."},
		{"async for chunk in stream.readChunks()", "Asynchronously iterate for each chunk in stream read Chunks."},
		{"while attempts < maxAttempts", "Loop while attempts is less than maxAttempts."},
		{"while (1)", "Loop while 1."},
		{"for (int i = a; i < b; i++)", "Repeat while i is less than b."},
		{"for (;;)", "Repeat indefinitely."},
		{"for i := 0; i < n; i++", "Repeat while i is less than n."},
		{"for _, line := range lines", "Repeat for each line in lines."},
		{"for range ticker.C", "Repeat for each item in ticker C."},
		{"for pending > 0", "Repeat while pending is greater than 0."},
		{"for", "Repeat indefinitely."},
		{"for (const user of users)", "Repeat for each user in users."},
		{"do-while (n > 0)", "Repeat until n is greater than 0 becomes false."},
		{"loop forever", "Repeat according to loop forever."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Loop(tt.input))
		})
	}
}

func TestStatement(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"return total;", "Return total."},
		{"return", "Return from the function."},
		{"return a + b * c", "Return a plus b multiplied by c."},
		{"returned = 1", "Set returned to 1."},
		{"raise ValueError('bad')", "Raise ValueError('bad')."},
		{"raise", "Raise an exception."},
		{"throw new Error(msg);", "Raise new Error(msg)."},
		{"int total = 0;", "Set int total to 0."},
		{"x := compute(y)", "Set x to compute(y)."},
		{"total += i;", "Increase total by i."},
		{"count -= 1", "Decrease count by 1."},
		{"area *= scale", "Multiply area by scale."},
		{"share /= parts", "Divide share by parts."},
		{"mask |= bit", "Update mask with bit."},
		{"i++;", "Increment i."},
		{"--remaining", "Decrement remaining."},
		{"apply_discount(order)", "Call apply discount with order."},
		{"ship_item(item)", "Call ship item with item."},
		{"log.Printf(\"%d\", max(a, b))", "Call log Printf with \"%d\", maxa, b."},
		{"self.flush()", "Call self flush."},
		{"configure(timeout=30)", "Call configure with timeout=30."},
		{"a == b", "a == b"},
		{"pass", "pass"},
		{";", "Perform the next action."},
		{"()", "Execute the next step."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Statement(tt.input))
		})
	}
}

func TestValue(t *testing.T) {
	assert.Equal(t, "the value", Value(" "))
	assert.Equal(t, "hello", Value(`"hello"`))
	assert.Equal(t, "hello", Value(`'hello'`))
	assert.Equal(t, "x to the power of 2 modulo m", Value("x ** 2 % m"))
	assert.Equal(t, "a floor divided by b minus 1", Value("a // b - 1"))
	assert.Equal(t, "node.value divided by 2", Value("node->value / 2"))
}

func TestHumanize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"applyDiscount", "apply Discount"},
		{"ship_item", "ship item"},
		{"order.items", "order items"},
		{"node->next", "node to next"},
		{"std::vector", "std vector"},
		{"items[0]", "items 0"},
		{"HTTPServer2Go", "HTTPServer2 Go"},
		{"__init__", "init"},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Humanize(tt.input))
		})
	}
}

func TestForKind(t *testing.T) {
	assert.Equal(t, StartSummary, ForKind(ir.KindStart, "Start"))
	assert.Equal(t, EndSummary, ForKind(ir.KindEnd, "End"))
	assert.Equal(t, "Check whether ready.", ForKind(ir.KindConditional, "if ready"))
	assert.Equal(t, "Loop while busy.", ForKind(ir.KindLoop, "while busy"))
	assert.Equal(t, "Return result.", ForKind(ir.KindReturn, "return result"))
	assert.Equal(t, "Raise err.", ForKind(ir.KindException, "raise err"))
	assert.Equal(t, "except Value Error as e", ForKind(ir.KindException, "except ValueError as e"))
}
