// 命令行入口：子命令定义见 cmd 包。
package main

import "tumbl-viewer/cmd"

func main() {
	cmd.Execute()
}
