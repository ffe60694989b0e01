package ops

import "github.com/provenant/provenant/internal/prov"

// Dependency computation. Every operation depends on its namespace record
// plus every resource id syntactically present in its fields, optional
// fields only when set. No model lookup happens here: the ledger computes
// read/write sets before any state is loaded.

// depSet accumulates addresses, keeping each exactly once in
// first-mention order.
type depSet struct {
	addrs []Address
}

func (d *depSet) add(a Address) {
	for _, existing := range d.addrs {
		if existing.Equal(a) {
			return
		}
	}
	d.addrs = append(d.addrs, a)
}

func (d *depSet) namespace(ns prov.NamespaceID) *depSet {
	d.add(NamespaceAddress(ns))
	return d
}

func (d *depSet) resource(ns prov.NamespaceID, iri prov.IRI) *depSet {
	d.add(ResourceAddress(ns, iri))
	return d
}

// Dependencies implements Operation.
func (o CreateNamespace) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.ID)
	return d.addrs
}

// Dependencies implements Operation.
func (o AgentExists) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).resource(o.Namespace, o.ID.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o ActivityExists) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).resource(o.Namespace, o.ID.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o EntityExists) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).resource(o.Namespace, o.ID.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o StartActivity) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).resource(o.Namespace, o.ID.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o EndActivity) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).resource(o.Namespace, o.ID.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o ActivityUses) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Activity.IRI()).
		resource(o.Namespace, o.Entity.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o WasGeneratedBy) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Activity.IRI()).
		resource(o.Namespace, o.Entity.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o WasInformedBy) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Activity.IRI()).
		resource(o.Namespace, o.Informing.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o AgentActsOnBehalfOf) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Delegate.IRI()).
		resource(o.Namespace, o.Responsible.IRI())
	if o.Activity != "" {
		d.resource(o.Namespace, o.Activity.IRI())
	}
	return d.addrs
}

// Dependencies implements Operation.
func (o WasAssociatedWith) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Activity.IRI()).
		resource(o.Namespace, o.Agent.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o WasAttributedTo) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Entity.IRI()).
		resource(o.Namespace, o.Agent.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o EntityDerive) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Generated.IRI()).
		resource(o.Namespace, o.Used.IRI())
	if o.Activity != "" {
		d.resource(o.Namespace, o.Activity.IRI())
	}
	return d.addrs
}

// Dependencies implements Operation.
func (o AgentHasIdentity) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace).
		resource(o.Namespace, o.Agent.IRI()).
		resource(o.Namespace, o.Identity.IRI())
	return d.addrs
}

// Dependencies implements Operation.
func (o SetAttributes) Dependencies() []Address {
	d := &depSet{}
	d.namespace(o.Namespace)
	switch o.Subject {
	case SubjectAgent:
		d.resource(o.Namespace, prov.AgentID(o.ID).IRI())
	case SubjectActivity:
		d.resource(o.Namespace, prov.ActivityID(o.ID).IRI())
	case SubjectEntity:
		d.resource(o.Namespace, prov.EntityID(o.ID).IRI())
	}
	return d.addrs
}
