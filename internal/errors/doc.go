// Package errors provides structured, coded errors for weave.
//
// Template compilation reports errors with the exact line and column inside
// the template source, and the CLI prints them with the surrounding lines.
//
// # Error Categories
//
// Errors are organized into categories:
//   - compile: Template parse and expression errors (W001-W099)
//   - runtime: Mount, render and event errors (W100-W119)
//   - config: Environment configuration errors (W120-W139)
//   - cli: Command line errors (W140-W159)
//
// # Usage
//
//	err := errors.New("W001").
//	    WithSource("list.html", src, 3, 5).
//	    WithSuggestion("Close <li> before </ul>")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR W001: Unexpected closing tag
//	//
//	//   list.html:3:5
//	//
//	//        1 │ <ul>
//	//        2 │   <li>
//	//   →    3 │   </ul>
//	//          │     ^
//	//
//	//   Hint: Close <li> before </ul>
package errors
