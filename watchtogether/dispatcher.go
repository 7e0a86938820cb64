package watchtogether

// Dispatcher routes decoded events to registered callbacks.
type Dispatcher struct {
	onMessage func(ChatMessage)
	onEntry   func(EntryNotification)
	onError   func(error)
}

func (d *Dispatcher) SetOnMessage(fn func(ChatMessage)) { d.onMessage = fn }

func (d *Dispatcher) SetOnEntry(fn func(EntryNotification)) { d.onEntry = fn }

func (d *Dispatcher) SetOnError(fn func(error)) { d.onError = fn }

func (d *Dispatcher) Dispatch(ev WireEvent) {
	switch ev := ev.(type) {
	case ChatMessage:
		if d.onMessage != nil {
			d.onMessage(ev)
		}
	case EntryNotification:
		if d.onEntry != nil {
			d.onEntry(ev)
		}
	}
}

func (d *Dispatcher) fireError(err error) {
	if d.onError != nil && err != nil {
		d.onError(err)
	}
}
