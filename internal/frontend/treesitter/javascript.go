package treesitter

import "github.com/smacker/go-tree-sitter/javascript"

// JavaScript adapts the tree-sitter JavaScript grammar: function and
// generator declarations, class methods and arrow functions bound to a
// variable.
var JavaScript = Config{
	Language: "javascript",
	Grammar:  javascript.GetLanguage(),
	FunctionQuery: `
(function_declaration
  name: (identifier) @name
  body: (statement_block) @body)

(generator_function_declaration
  name: (identifier) @name
  body: (statement_block) @body)

(method_definition
  name: (property_identifier) @name
  body: (statement_block) @body)

(variable_declarator
  name: (identifier) @name
  value: (arrow_function
    body: (statement_block) @body))
`,
	ReturnTypes:  []string{"return_statement"},
	RaiseTypes:   []string{"throw_statement"},
	CommentTypes: []string{"comment"},
}

func init() {
	MustRegister(JavaScript)
}
