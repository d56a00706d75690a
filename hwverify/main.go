// Command hwverify runs the verification benches.
package main

import "github.com/sarchlab/hwverify/hwverify/cmd"

func main() {
	cmd.Execute()
}
