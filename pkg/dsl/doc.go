/*
Package dsl provides a Go DSL for programmatically constructing credit decision workflows.

It lets developers define decision graphs with a fluent builder instead of
authoring YAML or JSON documents. This is particularly useful for tests,
generated workflows and IDE autocompletion.

Example usage:

	b := dsl.New("age-gate").Name("Adults only")

	b.Trigger("start").
		Number("age", "Age").
		Go("adult")

	b.Condition("adult", "age", domain.OpGreaterThanEqual, 18).
		Then("approve").
		Else("reject")

	b.Approve("approve")
	b.Reject("reject").Comment("Under age")

	wf, err := b.Build()
	// ... pass wf to finecision.Engine.Execute
*/
package dsl
