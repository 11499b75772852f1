package parser

// SymbolID returns the stable identity of a symbol: module:qualified_name.
func SymbolID(module, qualifiedName string) string {
	return module + ":" + qualifiedName
}

// AssignModule stamps the module identity and derived IDs onto every symbol.
func AssignModule(file *FileSymbols, module string) {
	if file == nil {
		return
	}
	for i := range file.Symbols {
		file.Symbols[i].Module = module
		file.Symbols[i].ID = SymbolID(module, file.Symbols[i].QualifiedName)
	}
}
