/*
Package dsl provides a fluent Go API for constructing flow definitions.

It is an alternative to JSON or YAML files, mostly useful for tests and for
flows generated by code.

Example usage:

	b := dsl.New()

	b.Add("start").Start().Go("hello")
	b.Add("hello").Message("Olá {{nome}}!").Go("ask")
	b.Add("ask").Input("Qual seu telefone?", "telefone").Go("end")
	b.Add("end").End("Até mais!")

	def, err := b.Build()
*/
package dsl
