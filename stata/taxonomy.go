// Package stata classifies Stata batch-mode output.
//
// Stata in batch mode always exits with process status 0, so the log it
// writes is the only ground truth for whether a script succeeded. This
// package owns the error taxonomy (static code table plus range-based
// fallback), the bounded log-tail parser, the mapping from r() codes to
// the stable CLI exit-code contract, and interpreter binary detection.
package stata

// Category is an error taxonomy category.
// Categories follow the numeric ranges documented in Stata's Programming
// Manual; the static table can refine an entry's description but never
// moves a code out of its range category.
type Category string

// Taxonomy categories.
const (
	CategoryGeneral     Category = "General"
	CategorySyntax      Category = "Syntax/Command"
	CategoryReserved    Category = "Reserved"
	CategoryStored      Category = "Previously stored result"
	CategoryStatistical Category = "Statistical problems"
	CategoryMatrix      Category = "Matrix manipulation"
	CategoryFile        Category = "File I/O"
	CategoryOS          Category = "Operating system"
	CategorySystem      Category = "System"
	CategoryMemory      Category = "Memory/Resources"
	CategoryLimits      Category = "System limits"
	CategoryNonError    Category = "Non-errors"
	CategoryMata        Category = "Mata runtime"
	CategoryClass       Category = "Class system"
	CategoryPython      Category = "Python runtime"
	CategoryFailure     Category = "System failure"
)

// CategoryForCode assigns a category from the code's numeric range.
// Used as the fallback for codes absent from the static table.
func CategoryForCode(code int) Category {
	switch {
	case code >= 1 && code <= 99:
		return CategoryGeneral
	case code >= 100 && code <= 199:
		return CategorySyntax
	case code >= 200 && code <= 299:
		return CategoryReserved
	case code >= 300 && code <= 399:
		return CategoryStored
	case code >= 400 && code <= 499:
		return CategoryStatistical
	case code >= 500 && code <= 599:
		return CategoryMatrix
	case code >= 600 && code <= 699:
		return CategoryFile
	case code >= 700 && code <= 799:
		return CategoryOS
	case code >= 800 && code <= 899:
		return CategorySystem
	case code >= 900 && code <= 999:
		return CategoryMemory
	case code >= 1000 && code <= 1999:
		return CategoryLimits
	case code >= 2000 && code <= 2999:
		return CategoryNonError
	case code >= 3000 && code <= 3999:
		return CategoryMata
	case code >= 4000 && code <= 4999:
		return CategoryClass
	case code >= 7100 && code <= 7199:
		return CategoryPython
	case code >= 9000 && code <= 9999:
		return CategoryFailure
	default:
		return CategoryGeneral
	}
}
