package stata

import "fmt"

// Code is one entry of the static error code table.
type Code struct {
	// Code is the numeric r() return code.
	Code int
	// Name is the canonical short name.
	Name string
	// Category is the taxonomy category.
	Category Category
	// Description is the official message text, or a close paraphrase.
	Description string
	// DocRef is the Stata documentation reference.
	DocRef string
}

// Lookup returns the static table entry for code.
func Lookup(code int) (Code, bool) {
	c, ok := codeTable[code]
	return c, ok
}

// Describe returns the table entry for code, synthesizing one from the
// range-based category when the code is unlisted.
func Describe(code int) Code {
	if c, ok := Lookup(code); ok {
		return c
	}
	cat := CategoryForCode(code)
	return Code{
		Code:        code,
		Name:        fmt.Sprintf("r(%d)", code),
		Category:    cat,
		Description: fmt.Sprintf("%s error", cat),
		DocRef:      "[P] error",
	}
}

// codeTable is the static error code table, keyed by r() code.
// Entries cover the documented return codes; CategoryForCode handles the
// rest. Descriptions paraphrase the messages in [P] error.
var codeTable = map[int]Code{
	// General (1-99)
	1:  {1, "break", CategoryGeneral, "you pressed Break", "[P] error"},
	2:  {2, "conn-timeout", CategoryGeneral, "connection timed out", "[P] error"},
	3:  {3, "no-dataset", CategoryGeneral, "no dataset in use", "[P] error"},
	4:  {4, "data-loss", CategoryGeneral, "no; dataset in memory has changed since last saved", "[P] error"},
	5:  {5, "not-sorted", CategoryGeneral, "master data not sorted", "[P] error"},
	7:  {7, "found-expected", CategoryGeneral, "'x' found where 'y' expected", "[P] error"},
	9:  {9, "assertion-false", CategoryGeneral, "assertion is false", "[D] assert"},
	18: {18, "no-obs-in-subset", CategoryGeneral, "you must start with an empty dataset", "[P] error"},

	// Syntax/Command (100-199)
	100: {100, "varlist-required", CategorySyntax, "varlist required", "[P] error"},
	101: {101, "varlist-not-allowed", CategorySyntax, "varlist not allowed", "[P] error"},
	102: {102, "too-few-vars", CategorySyntax, "too few variables specified", "[P] error"},
	103: {103, "too-many-vars", CategorySyntax, "too many variables specified", "[P] error"},
	104: {104, "nothing-to-input", CategorySyntax, "nothing to input", "[D] input"},
	107: {107, "not-numeric", CategorySyntax, "not possible with numeric variable", "[P] error"},
	108: {108, "not-string", CategorySyntax, "not possible with string variable", "[P] error"},
	109: {109, "type-mismatch", CategorySyntax, "type mismatch", "[P] error"},
	110: {110, "already-defined", CategorySyntax, "variable already defined", "[P] error"},
	111: {111, "var-not-found", CategorySyntax, "variable not found", "[P] error"},
	119: {119, "by-not-allowed", CategorySyntax, "statement out of context", "[P] error"},
	120: {120, "invalid-format", CategorySyntax, "invalid %format", "[D] format"},
	121: {121, "invalid-numlist", CategorySyntax, "invalid numlist", "[P] numlist"},
	122: {122, "numlist-too-few", CategorySyntax, "invalid numlist has too few elements", "[P] numlist"},
	123: {123, "numlist-too-many", CategorySyntax, "invalid numlist has too many elements", "[P] numlist"},
	124: {124, "numlist-order", CategorySyntax, "invalid numlist has elements out of order", "[P] numlist"},
	125: {125, "numlist-range", CategorySyntax, "invalid numlist has elements outside of allowed range", "[P] numlist"},
	130: {130, "expr-too-long", CategorySyntax, "expression too long", "[U] 13 Functions and expressions"},
	117: {117, "obs-out-of-range", CategorySyntax, "obs. nos. out of range", "[P] error"},
	131: {131, "not-possible-test", CategorySyntax, "not possible with test", "[R] test"},
	134: {134, "too-many-values", CategorySyntax, "too many values", "[P] error"},
	132: {132, "unbalanced-parens", CategorySyntax, "too many '(' or '['", "[P] error"},
	133: {133, "unknown-function", CategorySyntax, "unknown function", "[U] 13 Functions and expressions"},
	135: {135, "weights-not-allowed", CategorySyntax, "not possible with weighted data", "[U] 11.1.6 weight"},
	140: {140, "repeated-categorical", CategorySyntax, "repeated categorical variable in term", "[P] error"},
	141: {141, "repeated-term", CategorySyntax, "repeated term", "[P] error"},
	148: {148, "too-few-categories", CategorySyntax, "too few categories", "[P] error"},
	149: {149, "too-many-categories", CategorySyntax, "too many categories", "[P] error"},
	151: {151, "not-rclass", CategorySyntax, "non r-class program may not set r()", "[P] return"},
	152: {152, "not-eclass", CategorySyntax, "non e-class program may not set e()", "[P] return"},
	153: {153, "not-sclass", CategorySyntax, "non s-class program may not set s()", "[P] return"},
	161: {161, "ado-outside-program", CategorySyntax, "ado-file has commands outside of program define/end", "[U] 17 Ado-files"},
	162: {162, "ado-wrong-command", CategorySyntax, "ado-file does not define command", "[U] 17 Ado-files"},
	170: {170, "chdir-failed", CategorySyntax, "unable to chdir", "[D] cd"},
	175: {175, "factor-out-of-range", CategorySyntax, "factor level out of range", "[U] 11.4.3 Factor variables"},
	180: {180, "invalid-label", CategorySyntax, "invalid attempt to modify label", "[D] label"},
	181: {181, "may-not-label-strings", CategorySyntax, "may not label strings", "[D] label"},
	182: {182, "not-labeled", CategorySyntax, "not labeled", "[D] label"},
	184: {184, "options-conflict", CategorySyntax, "options may not be combined", "[P] error"},
	190: {190, "by-conflict", CategorySyntax, "request may not be combined with by", "[U] 11.5 by varlist"},
	196: {196, "sort-not-restored", CategorySyntax, "could not restore sort order", "[P] sortpreserve"},
	197: {197, "invalid-syntax-program", CategorySyntax, "invalid syntax (program error)", "[P] syntax"},
	198: {198, "invalid-syntax", CategorySyntax, "invalid syntax or option incorrectly specified", "[P] error"},
	199: {199, "unrecognized-command", CategorySyntax, "unrecognized command", "[P] error"},

	// Previously stored result (300-399)
	301: {301, "no-last-estimates", CategoryStored, "last estimates not found", "[P] ereturn"},
	302: {302, "no-last-test", CategoryStored, "last test not found", "[R] test"},
	303: {303, "equation-not-found", CategoryStored, "equation not found", "[P] ereturn"},
	304: {304, "ml-model-not-found", CategoryStored, "ml model not found", "[R] ml"},
	310: {310, "object-in-use", CategoryStored, "not possible because object(s) in use", "[P] error"},
	321: {321, "invalid-after-estimation", CategoryStored, "requested action not valid after most recent estimation command", "[P] error"},

	// Statistical problems (400-499)
	401: {401, "noninteger-fweights", CategoryStatistical, "may not use noninteger frequency weights", "[U] 11.1.6 weight"},
	402: {402, "negative-weights", CategoryStatistical, "negative weights encountered", "[U] 11.1.6 weight"},
	403: {403, "pweights-not-allowed", CategoryStatistical, "not possible with probability weights", "[U] 11.1.6 weight"},
	404: {404, "iweights-not-allowed", CategoryStatistical, "not possible with importance weights", "[U] 11.1.6 weight"},
	405: {405, "weights-not-constant", CategoryStatistical, "weights must be the same for all observations in a group", "[U] 11.1.6 weight"},
	406: {406, "aweights-not-allowed", CategoryStatistical, "not possible with analytic weights", "[U] 11.1.6 weight"},
	407: {407, "weights-not-integers", CategoryStatistical, "weights must be integers", "[U] 11.1.6 weight"},
	408: {408, "all-missing", CategoryStatistical, "all observations have missing values", "[P] error"},
	409: {409, "no-variance", CategoryStatistical, "no variance", "[P] error"},
	410: {410, "dependent-never-varies", CategoryStatistical, "dependent variable never varies", "[P] error"},
	411: {411, "nonpositive-values", CategoryStatistical, "nonpositive values encountered", "[P] error"},
	412: {412, "inconsistent-constraints", CategoryStatistical, "redundant or inconsistent constraints", "[R] constraint"},
	413: {413, "time-not-equally-spaced", CategoryStatistical, "observations not equally spaced in time", "[TS] tsset"},
	414: {414, "time-not-set", CategoryStatistical, "time variable not set", "[TS] tsset"},
	416: {416, "missing-values", CategoryStatistical, "missing values encountered", "[P] error"},
	420: {420, "two-groups-required", CategoryStatistical, "groups found, 2 required", "[P] error"},
	421: {421, "between-subject-error", CategoryStatistical, "could not determine between-subject error term", "[R] anova"},
	422: {422, "between-subject-unit", CategoryStatistical, "could not determine between-subject basic unit", "[R] anova"},
	430: {430, "no-convergence", CategoryStatistical, "convergence not achieved", "[R] Maximize"},
	450: {450, "not-binary", CategoryStatistical, "variable takes on too many values", "[P] error"},
	451: {451, "repeated-time-values", CategoryStatistical, "repeated time values in sample", "[TS] tsset"},
	452: {452, "invalid-panel-values", CategoryStatistical, "panel variable takes on noninteger or negative values", "[XT] xtset"},
	453: {453, "panel-not-set", CategoryStatistical, "panel variable not set", "[XT] xtset"},
	459: {459, "data-requirement", CategoryStatistical, "something that should be true of your data is not", "[P] error"},
	460: {460, "fpc-negative", CategoryStatistical, "fpc must be greater than or equal to 0", "[SVY] svyset"},
	461: {461, "fpc-not-constant", CategoryStatistical, "fpc for all observations within a stratum must be the same", "[SVY] svyset"},
	462: {462, "fpc-out-of-range", CategoryStatistical, "fpc must be less than or equal to 1 or greater than or equal to the number sampled", "[SVY] svyset"},
	465: {465, "single-psu-stratum", CategoryStatistical, "stratum with only one sampled PSU detected", "[SVY] Variance estimation"},
	471: {471, "esample-mismatch", CategoryStatistical, "esample() invalid or does not match estimation sample", "[P] ereturn"},
	480: {480, "invalid-starting-values", CategoryStatistical, "starting values invalid or some equations omitted", "[R] ml"},
	481: {481, "not-identified", CategoryStatistical, "equation/system not identified", "[R] ml"},
	482: {482, "cannot-log-transform", CategoryStatistical, "nonpositive value(s) among weights or offsets", "[R] ml"},
	483: {483, "hessian-not-negdef", CategoryStatistical, "Hessian is not negative semidefinite", "[R] ml"},
	484: {484, "nonconcave-region", CategoryStatistical, "flat or discontinuous region of the likelihood encountered", "[R] ml"},
	485: {485, "derivatives-missing", CategoryStatistical, "could not calculate numerical derivatives", "[R] ml"},
	486: {486, "likelihood-not-evaluable", CategoryStatistical, "log likelihood could not be evaluated at starting values", "[R] ml"},
	490: {490, "variance-not-computable", CategoryStatistical, "variance matrix could not be computed", "[R] ml"},
	491: {491, "no-feasible-values", CategoryStatistical, "could not find feasible values", "[R] ml"},
	498: {498, "estimation-error", CategoryStatistical, "estimation-specific error; see log message", "[P] error"},
	499: {499, "estimation-error", CategoryStatistical, "estimation-specific error; see log message", "[P] error"},

	// Matrix manipulation (500-599)
	501: {501, "matrix-not-found", CategoryMatrix, "matrix operation not found", "[P] matrix"},
	502: {502, "matrix-not-invertible", CategoryMatrix, "matrix not invertible", "[P] matrix"},
	503: {503, "conformability", CategoryMatrix, "conformability error", "[P] matrix"},
	504: {504, "matrix-missing-values", CategoryMatrix, "matrix has missing values", "[P] matrix"},
	505: {505, "matrix-not-symmetric", CategoryMatrix, "matrix not symmetric", "[P] matrix"},
	506: {506, "matrix-not-posdef", CategoryMatrix, "matrix not positive definite", "[P] matrix"},
	507: {507, "name-conflict", CategoryMatrix, "name conflict", "[P] matrix"},
	509: {509, "matrix-operator-context", CategoryMatrix, "matrix operators that return matrices not allowed in this context", "[P] matrix"},

	// File I/O (600-699)
	601: {601, "file-not-found", CategoryFile, "file not found", "[P] error"},
	602: {602, "file-exists", CategoryFile, "file already exists", "[P] error"},
	603: {603, "file-open-failed", CategoryFile, "file could not be opened", "[P] error"},
	604: {604, "log-already-open", CategoryFile, "log file already open", "[R] log"},
	606: {606, "no-log-open", CategoryFile, "no log file open", "[R] log"},
	607: {607, "log-wrong-format", CategoryFile, "file is not a SMCL or log file", "[R] log"},
	608: {608, "file-read-only", CategoryFile, "file is read-only", "[P] error"},
	610: {610, "not-stata-format", CategoryFile, "file not Stata format", "[P] error"},
	611: {611, "record-too-long", CategoryFile, "record too long", "[D] infile"},
	612: {612, "unexpected-eof", CategoryFile, "unexpected end of file", "[P] error"},
	613: {613, "no-dictionary", CategoryFile, "file does not contain dictionary", "[D] infile"},
	614: {614, "dictionary-invalid", CategoryFile, "dictionary invalid", "[D] infile"},
	621: {621, "already-preserved", CategoryFile, "already preserved", "[P] preserve"},
	622: {622, "nothing-to-restore", CategoryFile, "nothing to restore", "[P] preserve"},
	630: {630, "web-not-allowed", CategoryFile, "web files not allowed in this context", "[U] 3.6 Web resources"},
	631: {631, "host-not-found", CategoryFile, "host not found", "[U] 3.6 Web resources"},
	632: {632, "checksum-file-invalid", CategoryFile, "checksum file invalid", "[D] checksum"},
	639: {639, "checksum-mismatch", CategoryFile, "file transmission error (checksums do not match)", "[D] checksum"},
	660: {660, "proxy-invalid", CategoryFile, "invalid proxy host or port", "[U] 3.6 Web resources"},
	662: {662, "proxy-host-not-found", CategoryFile, "proxy host not found", "[U] 3.6 Web resources"},
	663: {663, "remote-connection-failed", CategoryFile, "remote connection failed", "[U] 3.6 Web resources"},
	672: {672, "server-refused-file", CategoryFile, "server refused to send file", "[R] net"},
	673: {673, "authorization-required", CategoryFile, "authorization required by server", "[R] net"},
	674: {674, "unexpected-response", CategoryFile, "unexpected response from server", "[R] net"},
	678: {678, "socket-open-failed", CategoryFile, "could not open local network socket", "[R] net"},
	691: {691, "io-error", CategoryFile, "I/O error", "[P] error"},
	699: {699, "disk-full", CategoryFile, "insufficient disk space", "[P] error"},

	// Operating system (700-799)
	701: {701, "os-refused-request", CategoryOS, "op. sys. refused to honor request", "[P] error"},
	702: {702, "process-refused", CategoryOS, "op. sys. refused to start new process", "[D] shell"},
	703: {703, "pipe-refused", CategoryOS, "op. sys. refused to open pipe", "[D] shell"},
	704: {704, "tempfile-failed", CategoryOS, "could not create temporary file", "[P] macro"},

	// Memory/Resources (900-999)
	900: {900, "no-room-variables", CategoryMemory, "no room to add more variables", "[D] memory"},
	901: {901, "no-room-observations", CategoryMemory, "no room to add more observations", "[D] memory"},
	902: {902, "no-room-width", CategoryMemory, "no room to add more variables because of width", "[D] memory"},
	903: {903, "no-room-data", CategoryMemory, "no room to add more data", "[D] memory"},
	904: {904, "no-room-labels", CategoryMemory, "no room to add more labels", "[D] label"},
	908: {908, "matsize-too-small", CategoryMemory, "matsize too small", "[R] matsize"},
	909: {909, "os-memory-refused", CategoryMemory, "op. sys. refuses to provide memory", "[D] memory"},
	910: {910, "maxvar-too-small", CategoryMemory, "maxvar too small", "[D] memory"},
	912: {912, "too-many-open-files", CategoryMemory, "too many open files", "[D] memory"},
	913: {913, "file-grow-refused", CategoryMemory, "op. sys. refused to allow file to grow", "[D] memory"},
	914: {914, "os-io-error", CategoryMemory, "op. sys. I/O error", "[D] memory"},
	920: {920, "macro-expansion-too-long", CategoryMemory, "macro substitution results in line that is too long", "[P] macro"},
	950: {950, "insufficient-memory", CategoryMemory, "insufficient memory", "[D] memory"},

	// System limits (1000-1999)
	1000: {1000, "system-limit", CategoryLimits, "system limit exceeded; see limits", "[R] Limits"},
	1001: {1001, "too-many-values", CategoryLimits, "too many values", "[R] Limits"},
	1002: {1002, "too-many-pairs", CategoryLimits, "too many pairwise combinations", "[R] Limits"},
	1400: {1400, "numerical-overflow", CategoryLimits, "numerical overflow", "[P] error"},

	// Non-errors (2000-2999)
	2000: {2000, "no-observations", CategoryNonError, "no observations", "[P] error"},
	2001: {2001, "insufficient-observations", CategoryNonError, "insufficient observations", "[P] error"},

	// Mata runtime (3000-3999)
	3000: {3000, "mata-error", CategoryMata, "Mata run-time error", "[M-2] Errors"},
	3001: {3001, "mata-wrong-args", CategoryMata, "incorrect number of arguments", "[M-2] Errors"},
	3200: {3200, "mata-conformability", CategoryMata, "conformability error", "[M-2] Errors"},
	3204: {3204, "mata-matrix-for-scalar", CategoryMata, "matrix found where scalar required", "[M-2] Errors"},
	3250: {3250, "mata-type-mismatch", CategoryMata, "type mismatch", "[M-2] Errors"},
	3253: {3253, "mata-nonreal", CategoryMata, "nonreal found where real required", "[M-2] Errors"},
	3300: {3300, "mata-argument-range", CategoryMata, "argument out of range", "[M-2] Errors"},
	3301: {3301, "mata-subscript", CategoryMata, "subscript invalid", "[M-2] Errors"},
	3499: {3499, "mata-not-found", CategoryMata, "name not found", "[M-2] Errors"},
	3500: {3500, "mata-invalid-name", CategoryMata, "invalid Stata name", "[M-2] Errors"},
	3598: {3598, "mata-class-error", CategoryMata, "class compiled under different version", "[M-2] Errors"},
	3601: {3601, "mata-invalid-file-handle", CategoryMata, "invalid file handle", "[M-5] fopen()"},
	3602: {3602, "mata-invalid-filename", CategoryMata, "invalid filename", "[M-5] fopen()"},
	3611: {3611, "mata-too-many-files", CategoryMata, "too many open files", "[M-5] fopen()"},
	3621: {3621, "mata-file-read-only", CategoryMata, "attempt to write read-only file", "[M-5] fopen()"},
	3900: {3900, "mata-out-of-memory", CategoryMata, "out of memory", "[M-2] Errors"},

	// Class system (4000-4999)
	4000: {4000, "class-error", CategoryClass, "class system error", "[P] class"},
	4005: {4005, "class-member-not-found", CategoryClass, "class member function or variable not found", "[P] class"},

	// Python runtime (7100-7199)
	7100: {7100, "python-not-initialized", CategoryPython, "Python initialization failed or not available", "[P] PyStata integration"},
	7101: {7101, "python-not-found", CategoryPython, "Python executable not found or not configured", "[P] PyStata integration"},
	7102: {7102, "python-exception", CategoryPython, "Python code raised an exception", "[P] PyStata integration"},
	7103: {7103, "python-module-missing", CategoryPython, "required Python module could not be imported", "[P] PyStata integration"},

	// System failure (9000-9999)
	9000: {9000, "system-failure", CategoryFailure, "unexpected system failure", "[P] error"},
	9001: {9001, "internal-inconsistency", CategoryFailure, "internal consistency check failed", "[P] error"},
}

// TableSize returns the number of entries in the static table.
func TableSize() int { return len(codeTable) }
