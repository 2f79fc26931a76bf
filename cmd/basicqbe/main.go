// Command basicqbe compiles BASIC source to QBE's textual SSA IL.
package main

import "github.com/keurnel/basicqbe/cmd/basicqbe/cmd"

func main() {
	cmd.Execute()
}
