package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeFile() string {
	return `Counts the lines of a single Python source file by kind: docstrings, comments, blank lines and source code, plus the number and average length of its functions.

USE WHEN:
- Checking how much of a module is documentation versus code
- Spotting modules dominated by long functions
- Comparing a file before and after a refactor (pass ref)

INTERPRETING RESULTS:
- source_lines = lines - docstring_lines - comment_lines - blank_lines
- average_function_length counts only the source lines of each function body
- A docstring line inside a function counts toward docstring_lines, never source_lines
- percentage=true reports every count except lines and number_of_functions as a share of lines

METRICS RETURNED:
- One record keyed by the file's base name
- lines, number_of_functions, average_function_length
- docstring_lines, comment_lines, blank_lines, source_lines`
}

func describePackage() string {
	return `Counts the lines of every Python file in a package tree by kind: docstrings, comments, blank lines and source code, plus function counts and average lengths.

USE WHEN:
- Surveying documentation coverage across a package
- Finding the modules that carry most of the code
- Comparing a package at two git revisions (pass ref)

INTERPRETING RESULTS:
- The path must hold __init__.py directly, or exactly one subdirectory that does
- Files that fail to parse are skipped, not reported
- grouped=true sums all files into one record with source_files set to the file count
- The grouped average_function_length weights each file's average by its line count
- exclude takes gitignore-style patterns relative to the package root

METRICS RETURNED:
- Per file: a record keyed "<package>/<relative path>"
- Grouped: one record for the package, including source_files
- lines, number_of_functions, average_function_length
- docstring_lines, comment_lines, blank_lines, source_lines`
}
