package main

import "github.com/MatheusFeliciano0904/Analise-Estatistica-Evolucao-Saude-Indigena/cmd"

func main() {
	cmd.Execute()
}
