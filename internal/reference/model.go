package reference

// Catalog — именованный справочник возможных значений для list-полей.
type Catalog struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

// Item: стабильный целочисленный ключ + отображаемое значение.
type Item struct {
	Key   int    `yaml:"key"`
	Value string `yaml:"value"`
	// Дополнительные поля: Order, ValidFrom, ValidTo и т.д.
	Order int `yaml:"order,omitempty"`
}
