/*
Package dsl provides a Go DSL for programmatically constructing Reflex rule sets.

It allows developers to define rules with a type-safe, fluent builder instead of
hand-writing rule text. This is particularly useful for generated behaviours,
unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/reflex"
		"github.com/aretw0/reflex/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.When(dsl.Param("interactionState").Is("Active")).
			Then(dsl.Speak("Hello!"), dsl.SetParam("interactionState", "idle"))

		b.When(dsl.Match("*settings*", dsl.Param("lastAsrResult").Expr())).
			Then(dsl.Call("System", "openApp", dsl.Lit("settings")))

		text, err := b.Text()
		if err != nil {
			panic(err)
		}
		engine := reflex.New(text)
		// ...
	}

The produced text is canonical rule source: parsing it yields exactly the rules
that were built.
*/
package dsl
