package csimple

import "strings"

// storageWords are dropped from the declared return type.
var storageWords = map[string]bool{
	"static":     true,
	"inline":     true,
	"extern":     true,
	"__inline":   true,
	"__inline__": true,
	"register":   true,
}

// returnType is the declaration text before the function name with
// storage-class words removed, e.g. "static const char *" -> "const char *".
func returnType(v *codeView, c candidate) string {
	var kept []string
	for _, word := range strings.Fields(v.cleaned[c.sigStart:c.nameAt]) {
		if !storageWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// parameterNames extracts declarator names from the parameter list.
// "void" and empty lists yield no names; "..." is kept as is.
func parameterNames(v *codeView, c candidate) []string {
	list := strings.TrimSpace(v.cleaned[c.paramOpen+1 : c.paramClose])
	if list == "" || list == "void" {
		return []string{}
	}
	names := []string{}
	for _, param := range splitParams(list) {
		if name := declaratorName(param); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// splitParams splits on commas outside nested parentheses and brackets.
func splitParams(list string) []string {
	var out []string
	depth, last := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[last:i]))
				last = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(list[last:]))
}

// declaratorName finds the name declared by one parameter:
// "int a" -> "a", "char *argv[]" -> "argv", "void (*cb)(int)" -> "cb".
func declaratorName(param string) string {
	param = strings.TrimSpace(param)
	if param == "..." {
		return param
	}
	if i := strings.Index(param, "(*"); i >= 0 {
		if j := strings.IndexByte(param[i:], ')'); j >= 0 {
			return lastIdentifier(param[i+2 : i+j])
		}
	}
	if i := strings.IndexByte(param, '['); i >= 0 {
		param = param[:i]
	}
	return lastIdentifier(param)
}

func lastIdentifier(s string) string {
	end := len(s)
	for end > 0 && !isIdentChar(s[end-1]) {
		end--
	}
	start := end
	for start > 0 && isIdentChar(s[start-1]) {
		start--
	}
	return s[start:end]
}
